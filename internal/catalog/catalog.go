package catalog

import "strings"

// DefaultEntities is used when ENTITY_NAMES is not configured.
var DefaultEntities = []string{
	"الأمانة العامة",
	"لجنة الإعلام",
	"لجنة العلاقات العامة",
	"لجنة التنظيم",
	"لجنة الأنشطة الطلابية",
	"لجنة الرياضة",
	"لجنة الثقافة والفنون",
	"لجنة التدريب والتأهيل",
	"لجنة العمل التطوعي",
	"لجنة الشؤون القانونية",
	"وحدة التحول الرقمي",
	"وحدة الخريجين",
}

// Category is an event category value with its Arabic label.
type Category struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

var categories = []Category{
	{"workshop", "ورشة عمل"},
	{"conference", "مؤتمر"},
	{"meeting", "اجتماع"},
	{"training", "تدريب"},
	{"seminar", "ندوة"},
	{"celebration", "احتفال"},
	{"sports", "نشاط رياضي"},
	{"cultural", "نشاط ثقافي"},
	{"other", "أخرى"},
}

const (
	MemberTypeStudent  = "student"
	MemberTypeGraduate = "graduate"

	PaymentCoordinator = "coordinator"
	PaymentInstapay    = "instapay"
)

// Registry answers membership questions over the reference lists.
type Registry struct {
	byName     map[string]Governorate
	entities   []string
	entitySet  map[string]struct{}
	categories map[string]struct{}
}

// NewRegistry builds a registry over the compiled governorates and the given
// entity names. A nil or empty list falls back to DefaultEntities.
func NewRegistry(entities []string) *Registry {
	if len(entities) == 0 {
		entities = DefaultEntities
	}
	r := &Registry{
		byName:     make(map[string]Governorate, len(governorates)),
		entitySet:  make(map[string]struct{}, len(entities)),
		categories: make(map[string]struct{}, len(categories)),
	}
	for _, g := range governorates {
		r.byName[g.Name] = g
	}
	for _, e := range entities {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		if _, dup := r.entitySet[e]; dup {
			continue
		}
		r.entitySet[e] = struct{}{}
		r.entities = append(r.entities, e)
	}
	for _, c := range categories {
		r.categories[c.Value] = struct{}{}
	}
	return r
}

// Lookup resolves a governorate by its Arabic name.
func (r *Registry) Lookup(name string) (Governorate, bool) {
	g, ok := r.byName[strings.TrimSpace(name)]
	return g, ok
}

func (r *Registry) HasEntity(name string) bool {
	_, ok := r.entitySet[strings.TrimSpace(name)]
	return ok
}

func (r *Registry) HasCategory(value string) bool {
	_, ok := r.categories[value]
	return ok
}

func (r *Registry) Entities() []string {
	out := make([]string, len(r.entities))
	copy(out, r.entities)
	return out
}

// Categories returns the event categories in display order.
func Categories() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)
	return out
}

// CategoryLabel returns the Arabic label for value, or value itself.
func CategoryLabel(value string) string {
	for _, c := range categories {
		if c.Value == value {
			return c.Label
		}
	}
	return value
}
