package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openlearn/lms-service/internal/events"
	"github.com/openlearn/lms-service/internal/models"
	"github.com/openlearn/lms-service/internal/payment"
	"github.com/openlearn/lms-service/internal/validator"
)

const (
	testKeyID     = "rzp_test_key"
	testKeySecret = "rzp_test_secret"
)

func newPaymentTestService(t *testing.T) (PaymentService, *fakeRepository, *events.MockEventPublisher, *fakeGateway) {
	t.Helper()
	repo := newFakeRepository()
	publisher := events.NewMockEventPublisher(testLogger())
	gateway := &fakeGateway{}
	svc := NewPaymentService(repo, nil, testLogger(), validator.New(), gateway, testKeyID, testKeySecret, publisher)
	return svc, repo, publisher, gateway
}

func TestPaymentService_Checkout(t *testing.T) {
	ctx := context.Background()
	svc, repo, _, _ := newPaymentTestService(t)

	instructor := seedUser(t, repo, "ivan", models.RoleInstructor)
	student := seedUser(t, repo, "sam", models.RoleStudent)

	paid := seedCourse(t, repo, instructor.ID, true, 49900)
	free := seedCourse(t, repo, instructor.ID, true, 0)
	draft := seedCourse(t, repo, instructor.ID, false, 49900)

	t.Run("opens a gateway order for a paid course", func(t *testing.T) {
		resp, err := svc.Checkout(ctx, &CheckoutRequest{CourseID: paid.ID}, student)
		require.NoError(t, err)
		assert.NotEmpty(t, resp.OrderID)
		assert.Equal(t, int64(49900), resp.Amount)
		assert.Equal(t, "INR", resp.Currency)
		assert.Equal(t, testKeyID, resp.KeyID)
	})

	t.Run("free course must use direct enrollment", func(t *testing.T) {
		_, err := svc.Checkout(ctx, &CheckoutRequest{CourseID: free.ID}, student)
		assert.ErrorIs(t, err, ErrFreeCourse)
	})

	t.Run("hidden course is not found", func(t *testing.T) {
		_, err := svc.Checkout(ctx, &CheckoutRequest{CourseID: draft.ID}, student)
		assert.ErrorIs(t, err, ErrCourseNotFound)
	})

	t.Run("already enrolled student is rejected", func(t *testing.T) {
		require.NoError(t, repo.Enrollment().Create(ctx, nil, &models.Enrollment{
			StudentID: student.ID,
			CourseID:  paid.ID,
		}))
		_, err := svc.Checkout(ctx, &CheckoutRequest{CourseID: paid.ID}, student)
		assert.ErrorIs(t, err, ErrAlreadyEnrolled)
	})
}

func TestPaymentService_Verify(t *testing.T) {
	ctx := context.Background()

	const orderID = "order_test1"
	const paymentID = "pay_test1"

	setup := func(t *testing.T) (PaymentService, *fakeRepository, *events.MockEventPublisher, *models.User, *models.Course) {
		svc, repo, publisher, _ := newPaymentTestService(t)
		instructor := seedUser(t, repo, "ivan", models.RoleInstructor)
		student := seedUser(t, repo, "sam", models.RoleStudent)
		course := seedCourse(t, repo, instructor.ID, true, 49900)
		_ = instructor
		return svc, repo, publisher, student, course
	}

	t.Run("valid signature creates the enrollment", func(t *testing.T) {
		svc, repo, publisher, student, course := setup(t)

		resp, err := svc.Verify(ctx, &VerifyPaymentRequest{
			OrderID:   orderID,
			PaymentID: paymentID,
			Signature: payment.Signature(testKeySecret, orderID, paymentID),
			CourseID:  course.ID,
		}, student)
		require.NoError(t, err)
		assert.Equal(t, student.ID, resp.StudentID)

		enrolled, err := repo.Enrollment().Exists(ctx, nil, student.ID, course.ID)
		require.NoError(t, err)
		assert.True(t, enrolled)

		published := publisher.GetPublishedEvents()
		require.Len(t, published, 2)
		assert.Equal(t, events.EventPaymentVerified, published[0].Type)
		assert.Equal(t, events.EventEnrollmentCreated, published[1].Type)
	})

	t.Run("bad signature creates nothing", func(t *testing.T) {
		svc, repo, publisher, student, course := setup(t)

		_, err := svc.Verify(ctx, &VerifyPaymentRequest{
			OrderID:   orderID,
			PaymentID: paymentID,
			Signature: payment.Signature("wrong secret", orderID, paymentID),
			CourseID:  course.ID,
		}, student)
		assert.ErrorIs(t, err, ErrPaymentVerificationFailed)

		enrolled, err := repo.Enrollment().Exists(ctx, nil, student.ID, course.ID)
		require.NoError(t, err)
		assert.False(t, enrolled)
		assert.Empty(t, publisher.GetPublishedEvents())
	})

	t.Run("replayed verification is a conflict", func(t *testing.T) {
		svc, _, _, student, course := setup(t)

		req := &VerifyPaymentRequest{
			OrderID:   orderID,
			PaymentID: paymentID,
			Signature: payment.Signature(testKeySecret, orderID, paymentID),
			CourseID:  course.ID,
		}
		_, err := svc.Verify(ctx, req, student)
		require.NoError(t, err)

		_, err = svc.Verify(ctx, req, student)
		assert.ErrorIs(t, err, ErrAlreadyEnrolled)
	})

	t.Run("missing fields fail validation", func(t *testing.T) {
		svc, _, _, student, course := setup(t)

		_, err := svc.Verify(ctx, &VerifyPaymentRequest{CourseID: course.ID}, student)
		var verrs validator.ValidationErrors
		require.ErrorAs(t, err, &verrs)
	})
}

func TestPaymentService_KeyID(t *testing.T) {
	svc, _, _, _ := newPaymentTestService(t)
	assert.Equal(t, testKeyID, svc.KeyID())
}
