package sensay

// User is a platform user record.
type User struct {
	ID string `json:"id"`
}

// Replica is a platform-hosted AI persona owned by a user.
type Replica struct {
	UUID             string `json:"uuid"`
	Name             string `json:"name"`
	ShortDescription string `json:"shortDescription,omitempty"`
	Greeting         string `json:"greeting,omitempty"`
	Slug             string `json:"slug,omitempty"`
	OwnerID          string `json:"ownerID,omitempty"`
}

// ReplicaList is the paged wrapper returned by the replica listing endpoint.
type ReplicaList struct {
	Items []Replica `json:"items"`
}

// LLMSpec pins the generation model for a new replica. The values come from
// service configuration, never from the caller.
type LLMSpec struct {
	Provider string `json:"provider"`
	Model    string `json:"model"`
}

// CreateReplicaRequest is the body for replica creation.
type CreateReplicaRequest struct {
	Name             string  `json:"name"`
	ShortDescription string  `json:"shortDescription"`
	Greeting         string  `json:"greeting"`
	Slug             string  `json:"slug"`
	OwnerID          string  `json:"ownerID"`
	Private          bool    `json:"private"`
	LLM              LLMSpec `json:"llm"`
}

// ChatReply is the platform's response to a chat completion request.
type ChatReply struct {
	Success bool   `json:"success"`
	Content string `json:"content"`
}
