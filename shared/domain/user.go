package domain

// User is the resolved caller. The core only ever sees the id.
type User struct {
	Id UserId
}
