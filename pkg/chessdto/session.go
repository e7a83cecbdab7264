package chessdto

type MaterialScore struct {
	White int `json:"white"`
	Black int `json:"black"`
}

// CapturedPieces lists pieces each side has lost, most valuable first.
type CapturedPieces struct {
	White []string `json:"white"`
	Black []string `json:"black"`
}

// SessionState is the JSON body of GET /status.
type SessionState struct {
	SessionID   string         `json:"session_id,omitempty"`
	Phase       string         `json:"phase"`
	HumanColor  string         `json:"human_color,omitempty"`
	EngineColor string         `json:"engine_color,omitempty"`
	Turn        string         `json:"turn"`
	FEN         string         `json:"fen"`
	MovesUCI    []string       `json:"moves_uci"`
	LastMove    string         `json:"last_move,omitempty"`
	MoveCount   int            `json:"move_count"`
	Material    MaterialScore  `json:"material"`
	Captured    CapturedPieces `json:"captured"`
	Outcome     string         `json:"outcome,omitempty"`
	OutcomeMeta string         `json:"outcome_method,omitempty"`
	StartedAt   string         `json:"started_at,omitempty"`
}
