package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/odwyaty/internal/catalog"
)

type option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Catalog handles GET /v1/catalog: the reference lists the registration and
// event forms offer.
func Catalog(reg *catalog.Registry) echo.HandlerFunc {
	body := echo.Map{
		"success":         true,
		"version":         catalog.Version,
		"governorates":    catalog.Governorates(),
		"entities":        reg.Entities(),
		"eventCategories": catalog.Categories(),
		"memberTypes": []option{
			{catalog.MemberTypeStudent, "طالب"},
			{catalog.MemberTypeGraduate, "خريج"},
		},
		"paymentMethods": []option{
			{catalog.PaymentCoordinator, "منسق المحافظة"},
			{catalog.PaymentInstapay, "InstaPay"},
		},
	}
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, body)
	}
}
