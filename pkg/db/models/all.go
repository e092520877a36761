package models

// All lists the models that make up the schema, in dependency order.
func All() []any {
	return []any{
		&User{},
		&Item{},
		&CartLine{},
		&Order{},
		&OrderItem{},
		&Message{},
	}
}
