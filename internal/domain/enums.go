package domain

import (
	"fmt"
	"strings"
)

// EducationLevel is an ordinal degree level: none < high-school < associate < bachelor < master < doctorate.
type EducationLevel int

// Education levels, ordered.
const (
	EducationNone EducationLevel = iota
	EducationHighSchool
	EducationAssociate
	EducationBachelor
	EducationMaster
	EducationDoctorate
)

var educationNames = map[EducationLevel]string{
	EducationNone:       "none",
	EducationHighSchool: "high_school",
	EducationAssociate:  "associate",
	EducationBachelor:   "bachelor",
	EducationMaster:     "master",
	EducationDoctorate:  "doctorate",
}

// educationAliases covers the labels produced by the upstream parser (EN + FR degree names).
var educationAliases = map[string]EducationLevel{
	"none":        EducationNone,
	"high_school": EducationHighSchool,
	"high-school": EducationHighSchool,
	"highschool":  EducationHighSchool,
	"bac":         EducationHighSchool,
	"associate":   EducationAssociate,
	"bac+2":       EducationAssociate,
	"bts":         EducationAssociate,
	"dut":         EducationAssociate,
	"bachelor":    EducationBachelor,
	"licence":     EducationBachelor,
	"bac+3":       EducationBachelor,
	"master":      EducationMaster,
	"bac+5":       EducationMaster,
	"mba":         EducationMaster,
	"engineer":    EducationMaster,
	"doctorate":   EducationDoctorate,
	"doctorat":    EducationDoctorate,
	"phd":         EducationDoctorate,
	"bac+8":       EducationDoctorate,
}

// ParseEducationLevel resolves a degree label to its ordinal level.
func ParseEducationLevel(s string) (EducationLevel, error) {
	if lvl, ok := educationAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return lvl, nil
	}
	return EducationNone, fmt.Errorf("unknown education level %q: %w", s, ErrInvalidInput)
}

func (e EducationLevel) String() string {
	if s, ok := educationNames[e]; ok {
		return s
	}
	return fmt.Sprintf("education(%d)", int(e))
}

// MarshalText implements encoding.TextMarshaler.
func (e EducationLevel) MarshalText() ([]byte, error) { return []byte(e.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (e *EducationLevel) UnmarshalText(b []byte) error {
	lvl, err := ParseEducationLevel(string(b))
	if err != nil {
		return err
	}
	*e = lvl
	return nil
}

// ContractType is a normalized employment contract kind.
type ContractType string

// Contract types.
const (
	ContractCDI            ContractType = "cdi"
	ContractCDD            ContractType = "cdd"
	ContractInterim        ContractType = "interim"
	ContractFreelance      ContractType = "freelance"
	ContractInternship     ContractType = "internship"
	ContractApprenticeship ContractType = "apprenticeship"
)

var contractAliases = map[string]ContractType{
	"cdi":            ContractCDI,
	"permanent":      ContractCDI,
	"full-time":      ContractCDI,
	"cdd":            ContractCDD,
	"fixed-term":     ContractCDD,
	"temporary":      ContractCDD,
	"interim":        ContractInterim,
	"intérim":        ContractInterim,
	"temp":           ContractInterim,
	"freelance":      ContractFreelance,
	"contractor":     ContractFreelance,
	"independant":    ContractFreelance,
	"internship":     ContractInternship,
	"stage":          ContractInternship,
	"apprenticeship": ContractApprenticeship,
	"alternance":     ContractApprenticeship,
}

// NormalizeContractType maps a raw label to a ContractType. Unknown labels are kept lowercased.
func NormalizeContractType(s string) ContractType {
	key := strings.ToLower(strings.TrimSpace(s))
	if ct, ok := contractAliases[key]; ok {
		return ct
	}
	return ContractType(key)
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *ContractType) UnmarshalText(b []byte) error {
	*c = NormalizeContractType(string(b))
	return nil
}

// PreferenceMode is the strength of a candidate's contract preference.
type PreferenceMode string

// Preference modes.
const (
	PreferenceExclusive  PreferenceMode = "exclusive"
	PreferencePreferred  PreferenceMode = "preferred"
	PreferenceAcceptable PreferenceMode = "acceptable"
	PreferenceFlexible   PreferenceMode = "flexible"
)

// CompanySize is an ordinal organisation size bucket.
type CompanySize string

// Company sizes, ordered.
const (
	CompanyStartup    CompanySize = "startup"
	CompanySmall      CompanySize = "small"
	CompanyMedium     CompanySize = "medium"
	CompanyLarge      CompanySize = "large"
	CompanyEnterprise CompanySize = "enterprise"
)

var companySizeRank = map[CompanySize]int{
	CompanyStartup:    0,
	CompanySmall:      1,
	CompanyMedium:     2,
	CompanyLarge:      3,
	CompanyEnterprise: 4,
}

// Rank returns the ordinal position of the size, or -1 if unknown.
func (s CompanySize) Rank() int {
	if r, ok := companySizeRank[s]; ok {
		return r
	}
	return -1
}

// WorkMode is an on-site/remote policy.
type WorkMode string

// Work modes.
const (
	WorkOnsite WorkMode = "onsite"
	WorkHybrid WorkMode = "hybrid"
	WorkRemote WorkMode = "remote"
)

// Urgency is how soon a position must be filled.
type Urgency string

// Urgency levels.
const (
	UrgencyLow      Urgency = "low"
	UrgencyNormal   Urgency = "normal"
	UrgencyHigh     Urgency = "high"
	UrgencyCritical Urgency = "critical"
)

// ProcessStage is how far a candidate is in other hiring processes.
type ProcessStage string

// Process stages.
const (
	StageNotSearching ProcessStage = "not_searching"
	StagePassive      ProcessStage = "passive"
	StageActive       ProcessStage = "active"
	StageInterviewing ProcessStage = "interviewing"
	StageFinal        ProcessStage = "final_stage"
	StageOfferPending ProcessStage = "offer_pending"
)
