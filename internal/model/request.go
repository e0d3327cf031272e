package model

type LoginRequest struct {
	AzureToken string `json:"azureToken"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type CreateDocumentRequest struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	Category string `json:"category"`
}
