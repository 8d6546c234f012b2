package models

// All lists every model in migration order.
func All() []interface{} {
	return []interface{}{&User{}, &PersonalAccessToken{}, &Post{}, &Comment{}}
}
