package models

// RegistrationPayload is posted verbatim to the participant backend.
type RegistrationPayload struct {
	Name      string `json:"name"`
	Place     string `json:"place"`
	BirthDate string `json:"birth_date"`
	Kampus    string `json:"kampus"`
	Jurusan   string `json:"jurusan"`
	Angkatan  string `json:"angkatan"`
	Phone     string `json:"phone"`
}

// EventInfo describes the event a successful registration is admitted to.
type EventInfo struct {
	Name     string `json:"name,omitempty"`
	Date     string `json:"date,omitempty"`
	Location string `json:"location,omitempty"`
	Note     string `json:"note,omitempty"`
}

// RegistrationResult is the decoded backend answer to a registration.
type RegistrationResult struct {
	Message string     `json:"message,omitempty"`
	Event   *EventInfo `json:"event,omitempty"`
}
