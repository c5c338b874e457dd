package logger

import (
	"go.uber.org/zap"

	"github.com/kailas-cloud/talentmatch/internal/domain"
)

// MatchFields returns the fields identifying a candidate/position pair.
func MatchFields(candidateID, positionID string) []zap.Field {
	return []zap.Field{
		zap.String("candidate_id", candidateID),
		zap.String("position_id", positionID),
	}
}

// Criterion tags a log line with a criterion key.
func Criterion(c domain.Criterion) zap.Field {
	return zap.String("criterion", string(c))
}
