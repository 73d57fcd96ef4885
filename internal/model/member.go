package model

import "time"

// Member mirrors the `members` table. QRCode is empty between the member
// insert and the QR back-fill; readers must accept that.
type Member struct {
	ID              string    `json:"id"`              // members.id (uuid)
	MemberNumber    string    `json:"memberNumber"`    // members.member_number, e.g. CA-00001
	NationalID      string    `json:"nationalId"`      // members.national_id
	FullNameAr      string    `json:"fullNameAr"`      // members.full_name_ar
	FullNameEn      string    `json:"fullNameEn"`      // members.full_name_en
	Governorate     string    `json:"governorate"`     // members.governorate
	MemberType      string    `json:"memberType"`      // student | graduate
	EntityName      string    `json:"entityName"`      // members.entity_name
	Role            string    `json:"role"`            // members.role
	PaymentMethod   string    `json:"paymentMethod"`   // coordinator | instapay
	CoordinatorName *string   `json:"coordinatorName"` // nullable
	InstapayRef     *string   `json:"instapayRef"`     // nullable
	AmountPaid      float64   `json:"amountPaid"`      // members.amount_paid
	PaymentReceipt  string    `json:"paymentReceipt"`  // receipt image reference
	ProfileImage    string    `json:"profileImage"`    // profile image reference
	QRCode          string    `json:"qrCode"`          // PNG data URL or ""
	PasswordHash    string    `json:"-"`               // members.password_hash (nullable)
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// MemberSnapshot is the subset of a member returned with scan results.
type MemberSnapshot struct {
	ID           string `json:"id"`
	FullNameAr   string `json:"fullNameAr"`
	FullNameEn   string `json:"fullNameEn"`
	MemberNumber string `json:"memberNumber"`
	EntityName   string `json:"entityName"`
	ProfileImage string `json:"profileImage"`
	Governorate  string `json:"governorate"`
}

// Snapshot projects m onto a MemberSnapshot.
func (m Member) Snapshot() MemberSnapshot {
	return MemberSnapshot{
		ID:           m.ID,
		FullNameAr:   m.FullNameAr,
		FullNameEn:   m.FullNameEn,
		MemberNumber: m.MemberNumber,
		EntityName:   m.EntityName,
		ProfileImage: m.ProfileImage,
		Governorate:  m.Governorate,
	}
}

// MemberCard is the public view of a member (no national id, no payment data).
type MemberCard struct {
	ID           string    `json:"id"`
	MemberNumber string    `json:"memberNumber"`
	FullNameAr   string    `json:"fullNameAr"`
	FullNameEn   string    `json:"fullNameEn"`
	Governorate  string    `json:"governorate"`
	MemberType   string    `json:"memberType"`
	EntityName   string    `json:"entityName"`
	Role         string    `json:"role"`
	ProfileImage string    `json:"profileImage"`
	QRCode       string    `json:"qrCode"`
	CreatedAt    time.Time `json:"createdAt"`
}

func (m Member) Card() MemberCard {
	return MemberCard{
		ID:           m.ID,
		MemberNumber: m.MemberNumber,
		FullNameAr:   m.FullNameAr,
		FullNameEn:   m.FullNameEn,
		Governorate:  m.Governorate,
		MemberType:   m.MemberType,
		EntityName:   m.EntityName,
		Role:         m.Role,
		ProfileImage: m.ProfileImage,
		QRCode:       m.QRCode,
		CreatedAt:    m.CreatedAt,
	}
}

// MemberCounter mirrors `member_counters`: the last issued sequence per prefix.
type MemberCounter struct {
	Prefix  string // member_counters.prefix
	Counter int64  // member_counters.counter
}
