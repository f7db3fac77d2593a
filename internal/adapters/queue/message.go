package queue

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// payloadField is the stream entry field holding the encoded mail
const payloadField = "payload"

// MailMessage is one outgoing mail on the stream
type MailMessage struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

func encodeMail(m MailMessage) (map[string]interface{}, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{payloadField: string(data)}, nil
}

func decodeMail(values map[string]interface{}) (MailMessage, error) {
	var m MailMessage
	raw, ok := values[payloadField].(string)
	if !ok {
		return m, fmt.Errorf("missing %q field", payloadField)
	}
	if err := json.UnmarshalFromString(raw, &m); err != nil {
		return m, err
	}
	if m.To == "" {
		return m, fmt.Errorf("mail has no recipient")
	}
	return m, nil
}
