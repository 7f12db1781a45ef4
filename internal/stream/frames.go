package stream

// Wire frames for the Live bidirectional generation protocol. Outbound
// frames are JSON text; inbound frames may arrive as binary blobs whose
// payload is the same JSON.

type setupMessage struct {
	Setup setupPayload `json:"setup"`
}

type setupPayload struct {
	Model            string           `json:"model"`
	GenerationConfig generationConfig `json:"generationConfig"`
	Tools            toolsPayload     `json:"tools"`
}

type generationConfig struct {
	Temperature        float64 `json:"temperature"`
	TopP               float64 `json:"topP"`
	ResponseModalities string  `json:"responseModalities"`
}

type toolsPayload struct {
	FunctionDeclarations []interface{} `json:"functionDeclarations"`
}

type clientContentMessage struct {
	ClientContent clientContent `json:"clientContent"`
}

type clientContent struct {
	Turns        []turn `json:"turns"`
	TurnComplete bool   `json:"turnComplete"`
}

type turn struct {
	Role  string `json:"role"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

// serverMessage is the union of inbound frames: a setup acknowledgement or
// a server content update.
type serverMessage struct {
	SetupComplete *struct{}      `json:"setupComplete,omitempty"`
	ServerContent *serverContent `json:"serverContent,omitempty"`
}

type serverContent struct {
	Interrupted  bool       `json:"interrupted,omitempty"`
	TurnComplete bool       `json:"turnComplete,omitempty"`
	ModelTurn    *modelTurn `json:"modelTurn,omitempty"`
}

type modelTurn struct {
	Parts []part `json:"parts"`
}
