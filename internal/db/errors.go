package db

import "errors"

// Sentinel errors for database operations.
var (
	ErrKeyNotFound = errors.New("db: key not found")
)

// Op constants map to Valkey/Redis command names for error context.
const (
	OpPing      = "PING"
	OpDel       = "DEL"
	OpHDel      = "HDEL"
	OpHGet      = "HGET"
	OpHGetAll   = "HGETALL"
	OpHSet      = "HSET"
	OpScan      = "SCAN"
	OpGet       = "GET"
	OpSet       = "SET"
	OpIncrBy    = "INCRBY"
	OpExpire    = "EXPIRE"
	OpPublish   = "PUBLISH"
	OpSubscribe = "SUBSCRIBE"
)

// Error wraps an underlying error with the operation name for diagnostics.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }
