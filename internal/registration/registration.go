// Package registration turns a validated application into a member: it
// allocates the member number, persists the row, back-fills the QR code and
// announces the new member.
package registration

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/iliyamo/odwyaty/internal/catalog"
	"github.com/iliyamo/odwyaty/internal/model"
	"github.com/iliyamo/odwyaty/internal/qrcode"
	"github.com/iliyamo/odwyaty/internal/queue"
	"github.com/iliyamo/odwyaty/internal/repository"
	v "github.com/iliyamo/odwyaty/internal/validator"
)

var (
	ErrRegistrationDisabled = errors.New("registration is disabled")
	ErrDuplicateNationalID  = errors.New("national id already registered")
)

// DuplicateNationalIDMessage is shown on the nationalId field when
// ErrDuplicateNationalID is returned.
const DuplicateNationalIDMessage = "هذا الرقم القومي مسجل بالفعل"

// Input is a registration request as submitted by the public form.
type Input struct {
	NationalID      string  `json:"nationalId" validate:"required,len=14,digits"`
	FullNameAr      string  `json:"fullNameAr" validate:"required,min=8,arabic"`
	FullNameEn      string  `json:"fullNameEn" validate:"required,min=8,latin"`
	Governorate     string  `json:"governorate" validate:"required,governorate"`
	MemberType      string  `json:"memberType" validate:"required,oneof=student graduate"`
	EntityName      string  `json:"entityName" validate:"required,entity"`
	Role            string  `json:"role" validate:"required,min=3"`
	PaymentMethod   string  `json:"paymentMethod" validate:"required,oneof=coordinator instapay"`
	CoordinatorName string  `json:"coordinatorName"`
	InstapayRef     string  `json:"instapayRef"`
	AmountPaid      float64 `json:"amountPaid" validate:"gte=0"`
	ProfileImage    string  `json:"profileImage" validate:"required,imageref,imagesize"`
	PaymentReceipt  string  `json:"paymentReceipt" validate:"required,imageref,imagesize"`
}

// Normalize trims every field and collapses runs of whitespace inside the
// names. Register and admin edits store the normalized form.
func (in *Input) Normalize() {
	for _, s := range []*string{&in.NationalID, &in.FullNameAr, &in.FullNameEn, &in.Governorate,
		&in.MemberType, &in.EntityName, &in.Role, &in.PaymentMethod, &in.CoordinatorName,
		&in.InstapayRef, &in.ProfileImage, &in.PaymentReceipt} {
		*s = strings.TrimSpace(*s)
	}
	in.FullNameEn = strings.Join(strings.Fields(in.FullNameEn), " ")
	in.FullNameAr = strings.Join(strings.Fields(in.FullNameAr), " ")
}

// paymentRule requires the detail field that belongs to the chosen method.
func paymentRule(sl validator.StructLevel) {
	in := sl.Current().Interface().(Input)
	switch in.PaymentMethod {
	case catalog.PaymentCoordinator:
		if len([]rune(in.CoordinatorName)) < 3 {
			sl.ReportError(in.CoordinatorName, "coordinatorName", "CoordinatorName", "required", "")
		}
	case catalog.PaymentInstapay:
		if len([]rune(in.InstapayRef)) < 3 {
			sl.ReportError(in.InstapayRef, "instapayRef", "InstapayRef", "required", "")
		}
	}
}

// Result identifies the created member. QRCode is empty when the back-fill
// failed; the card endpoint and regenerate-qr recover from that.
type Result struct {
	MemberID     string
	MemberNumber string
	QRCode       string
}

type MemberStore interface {
	ExistsNationalID(ctx context.Context, nationalID, excludeID string) (bool, error)
	Create(ctx context.Context, m model.Member) error
	SetQRCode(ctx context.Context, id, qr string) error
	ListIDs(ctx context.Context) ([]string, error)
}

type NumberAllocator interface {
	Allocate(ctx context.Context, governorate string) (string, error)
}

type SettingsReader interface {
	Get(ctx context.Context) (model.Settings, error)
}

type EventPublisher interface {
	PublishMemberRegistered(ctx context.Context, ev queue.MemberRegisteredEvent) error
}

type Service struct {
	members   MemberStore
	allocator NumberAllocator
	settings  SettingsReader
	publisher EventPublisher
	validate  *v.Validator
	appURL    string
	log       *slog.Logger
	now       func() time.Time
}

// NewService wires the registration flow. publisher may be nil.
func NewService(members MemberStore, alloc NumberAllocator, settings SettingsReader,
	publisher EventPublisher, validate *v.Validator, appURL string, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	validate.RegisterStructValidation(paymentRule, Input{})
	return &Service{
		members:   members,
		allocator: alloc,
		settings:  settings,
		publisher: publisher,
		validate:  validate,
		appURL:    appURL,
		log:       log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Register validates in and creates the member. Validation failures come
// back as validator.Errors and never reach the allocator, so a rejected
// application does not burn a member number.
func (s *Service) Register(ctx context.Context, in Input) (Result, error) {
	in.Normalize()
	if err := s.validate.Validate(in); err != nil {
		return Result{}, err
	}

	st, err := s.settings.Get(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("load settings: %w", err)
	}
	if !st.EnableRegistration {
		return Result{}, ErrRegistrationDisabled
	}

	exists, err := s.members.ExistsNationalID(ctx, in.NationalID, "")
	if err != nil {
		return Result{}, fmt.Errorf("check national id: %w", err)
	}
	if exists {
		return Result{}, ErrDuplicateNationalID
	}

	number, err := s.allocator.Allocate(ctx, in.Governorate)
	if err != nil {
		return Result{}, fmt.Errorf("allocate member number: %w", err)
	}

	now := s.now()
	m := model.Member{
		ID:              uuid.NewString(),
		MemberNumber:    number,
		NationalID:      in.NationalID,
		FullNameAr:      in.FullNameAr,
		FullNameEn:      in.FullNameEn,
		Governorate:     in.Governorate,
		MemberType:      in.MemberType,
		EntityName:      in.EntityName,
		Role:            in.Role,
		PaymentMethod:   in.PaymentMethod,
		CoordinatorName: optional(in.PaymentMethod == catalog.PaymentCoordinator, in.CoordinatorName),
		InstapayRef:     optional(in.PaymentMethod == catalog.PaymentInstapay, in.InstapayRef),
		AmountPaid:      in.AmountPaid,
		PaymentReceipt:  in.PaymentReceipt,
		ProfileImage:    in.ProfileImage,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.members.Create(ctx, m); err != nil {
		if errors.Is(err, repository.ErrNationalIDExists) {
			// lost the race to a concurrent registration; the number stays burned
			s.log.Info("national id taken concurrently", "member_number", number)
			return Result{}, ErrDuplicateNationalID
		}
		return Result{}, fmt.Errorf("create member: %w", err)
	}

	res := Result{MemberID: m.ID, MemberNumber: number}
	if qr, err := s.BackfillQR(ctx, m.ID); err != nil {
		s.log.Warn("qr back-fill failed", "member_id", m.ID, "error", err)
	} else {
		res.QRCode = qr
	}

	if s.publisher != nil {
		ev := queue.MemberRegisteredEvent{
			MemberID:     m.ID,
			MemberNumber: number,
			FullNameAr:   m.FullNameAr,
			Governorate:  m.Governorate,
			EntityName:   m.EntityName,
			MemberType:   m.MemberType,
			QRPending:    res.QRCode == "",
			RegisteredAt: now.Format(time.RFC3339),
		}
		if err := s.publisher.PublishMemberRegistered(ctx, ev); err != nil {
			s.log.Warn("publish member.registered failed", "member_id", m.ID, "error", err)
		}
	}
	return res, nil
}

func optional(keep bool, s string) *string {
	if !keep || s == "" {
		return nil
	}
	return &s
}

// BackfillQR renders and stores the QR code for member id.
func (s *Service) BackfillQR(ctx context.Context, id string) (string, error) {
	qr, err := qrcode.Generate(s.appURL, id)
	if err != nil {
		return "", err
	}
	if err := s.members.SetQRCode(ctx, id, qr); err != nil {
		return "", err
	}
	return qr, nil
}

// RegenerateResult reports a bulk QR regeneration.
type RegenerateResult struct {
	UpdatedCount int      `json:"updatedCount"`
	Errors       []string `json:"errors"`
}

// RegenerateAll re-renders every member's QR code, e.g. after APP_URL
// changed. Failures are collected per member and do not stop the run.
func (s *Service) RegenerateAll(ctx context.Context) (RegenerateResult, error) {
	ids, err := s.members.ListIDs(ctx)
	if err != nil {
		return RegenerateResult{}, fmt.Errorf("list members: %w", err)
	}
	out := RegenerateResult{Errors: []string{}}
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		if _, err := s.BackfillQR(ctx, id); err != nil {
			out.Errors = append(out.Errors, fmt.Sprintf("%s: %v", id, err))
			continue
		}
		out.UpdatedCount++
	}
	s.log.Info("qr codes regenerated", "updated", out.UpdatedCount, "failed", len(out.Errors))
	return out, nil
}
