package services

import (
	"context"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/openlearn/lms-service/internal/events"
	"github.com/openlearn/lms-service/internal/models"
	"github.com/openlearn/lms-service/internal/payment"
	"github.com/openlearn/lms-service/internal/policy"
	"github.com/openlearn/lms-service/internal/repositories"
	"github.com/openlearn/lms-service/internal/validator"
)

const checkoutCurrency = "INR"

type paymentService struct {
	repo           repositories.Repository
	db             *gorm.DB
	logger         *slog.Logger
	validator      *validator.Validator
	gateway        payment.Gateway
	keyID          string
	keySecret      string
	eventPublisher events.EventPublisher
}

func NewPaymentService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, v *validator.Validator, gateway payment.Gateway, keyID, keySecret string, publisher events.EventPublisher) PaymentService {
	return &paymentService{
		repo:           repo,
		db:             db,
		logger:         logger,
		validator:      v,
		gateway:        gateway,
		keyID:          keyID,
		keySecret:      keySecret,
		eventPublisher: publisher,
	}
}

// Checkout opens a gateway order for a paid course. The enrollment itself
// is only created after Verify succeeds.
func (s *paymentService) Checkout(ctx context.Context, req *CheckoutRequest, actor *models.User) (*CheckoutResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	course, err := s.repo.Course().GetByID(ctx, nil, req.CourseID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrCourseNotFound
		}
		return nil, fmt.Errorf("failed to get course: %w", err)
	}

	if d := policy.CanEnroll(toActor(actor), courseTarget(course)); !d.Allowed {
		return nil, denyError(d, actor, course.ID, "course", ErrCourseNotFound)
	}

	if course.Price == 0 {
		return nil, ErrFreeCourse
	}

	// Early exit for students already enrolled. The unique index still
	// backs this up at Verify time.
	enrolled, err := s.repo.Enrollment().Exists(ctx, nil, actor.ID, course.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check enrollment: %w", err)
	}
	if enrolled {
		return nil, ErrAlreadyEnrolled
	}

	receipt := fmt.Sprintf("course_%d_user_%d", course.ID, actor.ID)
	order, err := s.gateway.CreateOrder(course.Price, checkoutCurrency, receipt)
	if err != nil {
		return nil, fmt.Errorf("failed to create payment order: %w", err)
	}

	s.logger.Info("Checkout order created",
		"order_id", order.ID,
		"course_id", course.ID,
		"student_id", actor.ID,
		"amount", order.Amount)

	return &CheckoutResponse{
		OrderID:  order.ID,
		Amount:   order.Amount,
		Currency: order.Currency,
		KeyID:    s.keyID,
		CourseID: course.ID,
	}, nil
}

// Verify checks the gateway signature over the order/payment pair and, on
// success, creates the paid enrollment. A bad signature never creates
// anything.
func (s *paymentService) Verify(ctx context.Context, req *VerifyPaymentRequest, actor *models.User) (*EnrollmentResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	course, err := s.repo.Course().GetByID(ctx, nil, req.CourseID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrCourseNotFound
		}
		return nil, fmt.Errorf("failed to get course: %w", err)
	}

	if d := policy.CanEnroll(toActor(actor), courseTarget(course)); !d.Allowed {
		return nil, denyError(d, actor, course.ID, "course", ErrCourseNotFound)
	}

	if !payment.VerifySignature(s.keySecret, req.OrderID, req.PaymentID, req.Signature) {
		s.logger.Warn("Payment signature rejected",
			"order_id", req.OrderID,
			"course_id", course.ID,
			"student_id", actor.ID)
		return nil, ErrPaymentVerificationFailed
	}

	enrollment := &models.Enrollment{
		StudentID: actor.ID,
		CourseID:  course.ID,
	}
	if err := s.repo.Enrollment().Create(ctx, nil, enrollment); err != nil {
		if repositories.IsDuplicateError(err) {
			return nil, ErrAlreadyEnrolled
		}
		return nil, fmt.Errorf("failed to create enrollment: %w", err)
	}

	s.logger.Info("Payment verified",
		"order_id", req.OrderID,
		"payment_id", req.PaymentID,
		"enrollment_id", enrollment.ID)

	s.publishEvent(ctx, events.NewEvent(events.EventPaymentVerified, events.PaymentVerifiedEvent{
		OrderID:   req.OrderID,
		PaymentID: req.PaymentID,
		StudentID: actor.ID,
		CourseID:  course.ID,
		Amount:    course.Price,
	}))
	s.publishEvent(ctx, events.NewEvent(events.EventEnrollmentCreated, events.EnrollmentEvent{
		EnrollmentID: enrollment.ID,
		StudentID:    actor.ID,
		CourseID:     course.ID,
	}))

	return &EnrollmentResponse{Enrollment: enrollment, Progress: 0}, nil
}

// KeyID exposes the public checkout key. The secret never leaves the
// service.
func (s *paymentService) KeyID() string {
	return s.keyID
}

func (s *paymentService) publishEvent(ctx context.Context, event events.Event) {
	if err := s.eventPublisher.Publish(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish event", "event_type", event.Type, "error", err)
	}
}
