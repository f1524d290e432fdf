package db

// DB is a generic database port so repositories do not care whether the
// outbox lives behind GORM or something else.
type DB interface {
	Conn() any
}
