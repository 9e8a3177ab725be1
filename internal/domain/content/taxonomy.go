package content

// CategoryInfo is one configured category and its display name.
type CategoryInfo struct {
	ID   string `yaml:"id" json:"id"`
	Name string `yaml:"name" json:"name"`
}

type Category struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	PostCount int    `json:"postCount"`
}

type Tag struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func DefaultCategories() []CategoryInfo {
	return []CategoryInfo{
		{ID: "frontend", Name: "프론트엔드"},
		{ID: "backend", Name: "백엔드"},
		{ID: "deployment", Name: "배포"},
		{ID: "design", Name: "디자인"},
		{ID: "career", Name: "커리어"},
		{ID: "trends", Name: "트렌드"},
		{ID: "devops", Name: "데브옵스"},
	}
}
