package core

// DefaultCategories returns the category set seeded on first use, so the
// UI is never empty before the user creates their own.
func DefaultCategories() []Category {
	return []Category{
		{ID: "1", Name: "Alimentação", Color: "#ef4444"},
		{ID: "2", Name: "Transporte", Color: "#3b82f6"},
		{ID: "3", Name: "Lazer", Color: "#8b5cf6"},
		{ID: "4", Name: "Saúde", Color: "#10b981"},
		{ID: "5", Name: "Educação", Color: "#f59e0b"},
		{ID: "6", Name: "Casa", Color: "#6b7280"},
		{ID: "7", Name: "Outros", Color: "#ec4899"},
	}
}
