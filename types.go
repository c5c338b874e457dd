package talentmatch

import (
	"github.com/kailas-cloud/talentmatch/internal/domain"
	batchuc "github.com/kailas-cloud/talentmatch/internal/usecase/batch"
	"github.com/kailas-cloud/talentmatch/internal/usecase/cachectl"
	"github.com/kailas-cloud/talentmatch/internal/usecase/synonym"
)

// Records.
type (
	Candidate          = domain.Candidate
	Position           = domain.Position
	Location           = domain.Location
	SalaryRange        = domain.SalaryRange
	ContractPreference = domain.ContractPreference
	Preferences        = domain.Preferences
)

// Results.
type (
	MatchResult     = domain.MatchResult
	CriterionResult = domain.CriterionResult
	Insight         = domain.Insight
	Band            = domain.Band
	Mode            = domain.Mode
)

// Aggregation modes.
const (
	ModeAuto            = domain.ModeAuto
	ModeBaseline        = domain.ModeBaseline
	ModeExtended        = domain.ModeExtended
	ModeExtendedPartial = domain.ModeExtendedPartial
)

// Batches and evaluation.
type (
	BatchRequest      = batchuc.Request
	BatchOptions      = batchuc.Options
	BatchReport       = batchuc.Report
	Pair              = batchuc.Pair
	Label             = batchuc.Label
	EvaluationRequest = batchuc.EvaluationRequest
	Evaluation        = batchuc.Evaluation
)

// Cache invalidation.
type (
	Event     = cachectl.Event
	EventType = cachectl.EventType
)

// Invalidation event types.
const (
	EventCandidateUpdated = cachectl.EventCandidateUpdated
	EventPositionUpdated  = cachectl.EventPositionUpdated
	EventWeightsChanged   = cachectl.EventWeightsChanged
	EventLocationUpdated  = cachectl.EventLocationUpdated
)

// Lexicon returns terms related to a skill label (strict synonyms only).
type Lexicon = synonym.Lexicon

// Errors returned by the Engine. Match with errors.Is.
var (
	ErrInvalidInput = domain.ErrInvalidInput
	ErrNoCriteria   = domain.ErrNoCriteria
	ErrNotFound     = domain.ErrNotFound
)

// ValidationError lists per-field problems of a rejected record.
type ValidationError = domain.ValidationError
