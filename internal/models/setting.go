package models

// Setting is one persisted key/value configuration entry. Values are always strings and
// are parsed by the consumer.
type Setting struct {
	Key   string `bson:"key" json:"key"`
	Value string `bson:"value" json:"value"`
}
