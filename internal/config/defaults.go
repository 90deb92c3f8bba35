package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Documents.Root == "" {
		cfg.Documents.Root = "./data/documents"
	}
	if cfg.Documents.IndexRoot == "" {
		cfg.Documents.IndexRoot = "./data/index"
	}
	if cfg.Documents.Extensions == nil {
		cfg.Documents.Extensions = []string{".md", ".txt", ".pdf", ".docx", ".odt", ".rtf", ".xlsx"}
	}
	if cfg.Documents.ChunkSize == 0 {
		cfg.Documents.ChunkSize = 450
	}
	if cfg.Documents.ChunkOverlap == 0 {
		cfg.Documents.ChunkOverlap = 80
	}
	if cfg.Embedding.Provider == "" {
		cfg.Embedding.Provider = "openai"
	}
	if cfg.Embedding.Model == "" {
		cfg.Embedding.Model = "text-embedding-3-small"
	}
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = 384
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 10000
	}
	if cfg.Embedding.MaxTokens == 0 {
		cfg.Embedding.MaxTokens = 256
	}
	if cfg.Retrieval.DefaultK == 0 {
		cfg.Retrieval.DefaultK = 5
	}
	if cfg.Retrieval.MaxK == 0 {
		cfg.Retrieval.MaxK = 20
	}
	if cfg.Retrieval.FetchK == 0 {
		cfg.Retrieval.FetchK = 10
	}
	if cfg.Retrieval.MMRLambda == 0 {
		cfg.Retrieval.MMRLambda = 0.7
	}
	if cfg.Retrieval.MinScore == 0 {
		cfg.Retrieval.MinScore = 0.25
	}
	if cfg.Retrieval.MaxCharsPerChunk == 0 {
		cfg.Retrieval.MaxCharsPerChunk = 900
	}
	if cfg.Chat.HistoryTurns == 0 {
		cfg.Chat.HistoryTurns = 6
	}
	if cfg.Chat.HistoryTTLMinutes == 0 {
		cfg.Chat.HistoryTTLMinutes = 120
	}
	if cfg.Chat.Languages == nil {
		cfg.Chat.Languages = []string{"en", "de"}
	}
	if cfg.Chat.DefaultLanguage == "" {
		cfg.Chat.DefaultLanguage = "en"
	}
	if cfg.AI.Provider == "" {
		cfg.AI.Provider = "openai"
	}
	if cfg.AI.Model == "" {
		cfg.AI.Model = "gpt-4o-mini"
	}
	if cfg.AI.Temperature == 0 {
		cfg.AI.Temperature = 0.2
	}
	if cfg.Analytics.DatabasePath == "" {
		cfg.Analytics.DatabasePath = "./data/analytics.db"
	}
}
