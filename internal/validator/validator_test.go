package validator

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/odwyaty/internal/catalog"
)

type eventForm struct {
	Name      string `json:"name" validate:"required"`
	Category  string `json:"category" validate:"required,category"`
	Date      string `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime string `json:"startTime" validate:"required,clock"`
}

func TestValidateReportsJSONNamesWithArabicMessages(t *testing.T) {
	v := New(catalog.NewRegistry(nil))

	err := v.Validate(eventForm{Category: "party", Date: "01/05/2025", StartTime: "25:00"})
	var fe Errors
	require.ErrorAs(t, err, &fe)
	assert.ElementsMatch(t, Errors{
		{Field: "name", Message: "الاسم مطلوب"},
		{Field: "category", Message: "يرجى اختيار تصنيف صحيح"},
		{Field: "date", Message: "صيغة التاريخ غير صحيحة"},
		{Field: "startTime", Message: "صيغة الوقت غير صحيحة"},
	}, fe)

	assert.NoError(t, v.Validate(eventForm{Name: "ورشة", Category: "workshop", Date: "2025-05-01", StartTime: "18:30"}))
}

func TestImageRef(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"https://cdn.odwyaty.com/a.png", true},
		{"http://localhost:3000/a.jpg", true},
		{"data:image/jpeg;base64,/9j/4AAQ", true},
		{"data:image/JPG;base64,/9j/4AAQ", true},
		{"data:image/png;base64,iVBORw0KGgo=", true},
		{"data:image/gif;base64,R0lGOD", false},
		{"data:application/pdf;base64,JVBE", false},
		{"ftp://files.odwyaty.com/a.png", false},
		{"not a url", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ImageRefOK(tt.in), tt.in)
	}
}

func TestImageSize(t *testing.T) {
	small := "data:image/png;base64," + strings.Repeat("A", 1024)
	// 4 base64 chars per 3 bytes: this decodes to MaxImageBytes+3
	big := "data:image/png;base64," + strings.Repeat("A", (MaxImageBytes/3+1)*4)

	assert.True(t, ImageSizeOK(small))
	assert.False(t, ImageSizeOK(big))
	assert.True(t, ImageSizeOK("https://cdn.odwyaty.com/huge.png"))
}

func TestErrorsString(t *testing.T) {
	e := Errors{{Field: "a", Message: "x"}, {Field: "b", Message: "y"}}
	assert.Equal(t, "a: x; b: y", e.Error())
}
