package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/kailas-cloud/talentmatch/internal/domain/geo"
)

// Location is either a free-form address or a lat/lng pair (or both).
type Location struct {
	Address string   `json:"address,omitempty"`
	City    string   `json:"city,omitempty"`
	Region  string   `json:"region,omitempty"`
	Lat     *float64 `json:"lat,omitempty" validate:"omitempty,latitude"`
	Lng     *float64 `json:"lng,omitempty" validate:"omitempty,longitude"`
}

// IsZero reports whether the location carries no usable information.
func (l *Location) IsZero() bool {
	if l == nil {
		return true
	}
	_, hasPoint := l.Point()
	return !hasPoint && strings.TrimSpace(l.Address) == "" && strings.TrimSpace(l.City) == ""
}

// Point returns explicit coordinates when both are set.
func (l *Location) Point() (geo.Point, bool) {
	if l == nil || l.Lat == nil || l.Lng == nil {
		return geo.Point{}, false
	}
	return geo.Point{Lat: *l.Lat, Lng: *l.Lng}, true
}

// Text returns the most specific textual form (address, else city).
func (l *Location) Text() string {
	if l == nil {
		return ""
	}
	if a := strings.TrimSpace(l.Address); a != "" {
		return a
	}
	return strings.TrimSpace(l.City)
}

// Normalized is the cache-key form of the location: folded text, or rounded coordinates.
func (l *Location) Normalized() string {
	if t := l.Text(); t != "" {
		return geo.Fold(t)
	}
	if p, ok := l.Point(); ok {
		return fmt.Sprintf("%.5f,%.5f", p.Lat, p.Lng)
	}
	return ""
}

// SalaryRange is a yearly gross amount range. Min <= Max.
type SalaryRange struct {
	Min float64 `json:"min" validate:"gte=0"`
	Max float64 `json:"max" validate:"gte=0,gtefield=Min"`
}

// Mid returns the midpoint of the range.
func (r SalaryRange) Mid() float64 { return (r.Min + r.Max) / 2 }

// Width returns Max - Min.
func (r SalaryRange) Width() float64 { return r.Max - r.Min }

// ContractPreference is what a candidate accepts and how strongly.
type ContractPreference struct {
	Mode     PreferenceMode `json:"mode" validate:"omitempty,oneof=exclusive preferred acceptable flexible"`
	Primary  ContractType   `json:"primary,omitempty"`
	Accepted []ContractType `json:"accepted,omitempty"`
}

// Accepts reports whether the contract type is in the candidate's accepted set.
// Under exclusive mode only the primary type is accepted.
func (p *ContractPreference) Accepts(t ContractType) bool {
	if p == nil {
		return false
	}
	if p.Primary == t && t != "" {
		return true
	}
	if p.Mode == PreferenceExclusive && p.Primary != "" {
		return false
	}
	for _, a := range p.Accepted {
		if a == t {
			return true
		}
	}
	return false
}

// Preferences are the soft signals collected by the candidate questionnaire.
type Preferences struct {
	Motivations       []string      `json:"motivations,omitempty"`
	PreferredSectors  []string      `json:"preferred_sectors,omitempty"`
	ExcludedSectors   []string      `json:"excluded_sectors,omitempty"`
	CompanySize       *CompanySize  `json:"company_size,omitempty"`
	WorkModes         []WorkMode    `json:"work_modes,omitempty"`
	Environment       []string      `json:"environment,omitempty"`
	AvailableFrom     *time.Time    `json:"available_from,omitempty"`
	NoticeWeeks       *int          `json:"notice_weeks,omitempty" validate:"omitempty,gte=0,lte=52"`
	CurrentlyEmployed *bool         `json:"currently_employed,omitempty"`
	ListeningReasons  []string      `json:"listening_reasons,omitempty"`
	ProcessStage      *ProcessStage `json:"process_stage,omitempty"`
	TransportMode     geo.Mode      `json:"transport_mode,omitempty"`
	MaxCommuteMinutes *int          `json:"max_commute_minutes,omitempty" validate:"omitempty,gt=0"`
	Benefits          []string      `json:"benefits,omitempty"`
}

// Candidate is a parsed CV plus questionnaire answers. Read-only during matching.
type Candidate struct {
	ID              string              `json:"id" validate:"required"`
	Skills          []string            `json:"skills,omitempty"`
	Location        *Location           `json:"location,omitempty" validate:"omitempty"`
	Remote          bool                `json:"remote,omitempty"`
	YearsExperience *float64            `json:"years_experience,omitempty" validate:"omitempty,gte=0,lte=70"`
	Education       *EducationLevel     `json:"education,omitempty"`
	Salary          *SalaryRange        `json:"salary,omitempty"`
	Contract        *ContractPreference `json:"contract,omitempty"`
	Preferences     Preferences         `json:"preferences"`
}

// ExtendedCompleteness is the fraction of extended (soft) fields that are populated.
func (c *Candidate) ExtendedCompleteness() float64 {
	p := c.Preferences
	present := []bool{
		!c.Location.IsZero() || c.Remote,
		c.Salary != nil,
		c.Contract != nil && (c.Contract.Primary != "" || len(c.Contract.Accepted) > 0),
		len(p.Motivations) > 0,
		p.CompanySize != nil,
		len(p.WorkModes) > 0 || len(p.Environment) > 0,
		len(p.PreferredSectors) > 0 || len(p.ExcludedSectors) > 0,
		p.AvailableFrom != nil || p.NoticeWeeks != nil,
		len(p.ListeningReasons) > 0,
		p.ProcessStage != nil,
	}
	return ratio(present)
}

// Position is a parsed job posting. Read-only during matching.
type Position struct {
	ID              string          `json:"id" validate:"required"`
	Title           string          `json:"title,omitempty"`
	RequiredSkills  []string        `json:"required_skills,omitempty"`
	PreferredSkills []string        `json:"preferred_skills,omitempty"`
	Location        *Location       `json:"location,omitempty"`
	RemotePolicy    WorkMode        `json:"remote_policy,omitempty" validate:"omitempty,oneof=onsite hybrid remote"`
	MinYears        *float64        `json:"min_years,omitempty" validate:"omitempty,gte=0"`
	MaxYears        *float64        `json:"max_years,omitempty" validate:"omitempty,gte=0"`
	Education       *EducationLevel `json:"education,omitempty"`
	Salary          *SalaryRange    `json:"salary,omitempty"`
	// ContractTypes lists offered contracts; the first one is the position's primary need.
	ContractTypes []ContractType `json:"contract_types,omitempty"`
	Sector        string         `json:"sector,omitempty"`
	CompanySize   *CompanySize   `json:"company_size,omitempty"`
	Seniority     string         `json:"seniority,omitempty"`
	Urgency       Urgency        `json:"urgency,omitempty" validate:"omitempty,oneof=low normal high critical"`
	StartDate     *time.Time     `json:"start_date,omitempty"`
	Environment   []string       `json:"environment,omitempty"`
	Offers        []string       `json:"offers,omitempty"`
	Strengths     []string       `json:"strengths,omitempty"`
	Benefits      []string       `json:"benefits,omitempty"`
	Bonus         bool           `json:"bonus,omitempty"`
	Equity        bool           `json:"equity,omitempty"`
}

// Remote reports whether the position is fully remote.
func (p *Position) Remote() bool { return p.RemotePolicy == WorkRemote }

// PrimaryContract returns the position's declared primary contract need.
func (p *Position) PrimaryContract() (ContractType, bool) {
	if len(p.ContractTypes) == 0 {
		return "", false
	}
	return p.ContractTypes[0], true
}

// ExtendedCompleteness is the fraction of extended fields that are populated.
func (p *Position) ExtendedCompleteness() float64 {
	present := []bool{
		!p.Location.IsZero() || p.Remote(),
		p.Salary != nil,
		len(p.ContractTypes) > 0,
		len(p.Offers) > 0,
		p.CompanySize != nil,
		p.RemotePolicy != "" || len(p.Environment) > 0,
		p.Sector != "",
		p.StartDate != nil || p.Urgency != "",
		len(p.Strengths) > 0,
		len(p.Benefits) > 0 || p.Bonus || p.Equity,
	}
	return ratio(present)
}

func ratio(flags []bool) float64 {
	if len(flags) == 0 {
		return 0
	}
	n := 0
	for _, f := range flags {
		if f {
			n++
		}
	}
	return float64(n) / float64(len(flags))
}
