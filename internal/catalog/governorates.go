// Package catalog holds the fixed reference lists the service validates
// against: governorates (with their member-number prefixes), union entities,
// event categories, member types and payment methods.
//
// The governorate list is ordered and append-only. A governorate's Position
// decides the block of member numbers it owns, so entries must never be
// reordered or removed once deployed; new governorates go at the end and
// Version is bumped.
package catalog

import (
	"errors"
	"fmt"
)

// Version of the governorate list. Bump when appending.
const Version = 1

// Governorate is one entry of the ordered registry.
type Governorate struct {
	Position int    `json:"position"` // zero-based, immutable
	Name     string `json:"name"`     // Arabic display name, used in requests
	Code     string `json:"code"`     // member-number prefix
}

var governorates = []Governorate{
	{0, "القاهرة", "CA"},
	{1, "الجيزة", "GZ"},
	{2, "الإسكندرية", "AX"},
	{3, "الدقهلية", "DK"},
	{4, "البحر الأحمر", "RS"},
	{5, "البحيرة", "BH"},
	{6, "الفيوم", "FY"},
	{7, "الغربية", "GH"},
	{8, "الإسماعيلية", "IS"},
	{9, "المنوفية", "MF"},
	{10, "المنيا", "MN"},
	{11, "القليوبية", "KB"},
	{12, "الوادي الجديد", "WD"},
	{13, "السويس", "SZ"},
	{14, "أسوان", "AS"},
	{15, "أسيوط", "AT"},
	{16, "بني سويف", "BS"},
	{17, "بورسعيد", "PS"},
	{18, "دمياط", "DT"},
	{19, "الشرقية", "SH"},
	{20, "جنوب سيناء", "JS"},
	{21, "كفر الشيخ", "KS"},
	{22, "مطروح", "MT"},
	{23, "الأقصر", "LX"},
	{24, "قنا", "KN"},
	{25, "شمال سيناء", "SS"},
	{26, "سوهاج", "SJ"},
}

// ErrRegistryMismatch is returned by Verify when a stored registry disagrees
// with the compiled list.
var ErrRegistryMismatch = errors.New("governorate registry mismatch")

// Governorates returns a copy of the compiled, ordered list.
func Governorates() []Governorate {
	out := make([]Governorate, len(governorates))
	copy(out, governorates)
	return out
}

// Verify checks that stored (as read from the governorates table, ordered by
// position) agrees with the compiled list at every position it covers. The
// compiled list may be longer than stored (pending append), never shorter.
func Verify(stored []Governorate) error {
	if len(stored) > len(governorates) {
		return fmt.Errorf("%w: stored has %d entries, compiled has %d", ErrRegistryMismatch, len(stored), len(governorates))
	}
	for i, s := range stored {
		want := governorates[i]
		if s.Position != want.Position || s.Name != want.Name || s.Code != want.Code {
			return fmt.Errorf("%w: position %d is %s/%s, compiled %s/%s",
				ErrRegistryMismatch, i, s.Name, s.Code, want.Name, want.Code)
		}
	}
	return nil
}

// Missing returns the compiled entries that are not yet in stored.
func Missing(stored []Governorate) []Governorate {
	if len(stored) >= len(governorates) {
		return nil
	}
	return Governorates()[len(stored):]
}
