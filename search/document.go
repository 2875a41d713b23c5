package search

import (
	"github.com/eventatlas/eventatlas/db/entities"
	"github.com/eventatlas/eventatlas/utils"
)

// Document is the searchable projection of an event
type Document struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Type      string   `json:"type"`
	StartsAt  int64    `json:"startsAt"`
	EndsAt    int64    `json:"endsAt"`
	Country   string   `json:"country"`
	Region    string   `json:"region"`
	City      string   `json:"city"`
	Vibe      []string `json:"vibe"`
	Amenities []string `json:"amenities"`
}

func NewDocument(event *entities.Event) *Document {
	doc := &Document{
		ID:        event.Hash,
		Name:      event.Name,
		Type:      string(event.Type),
		StartsAt:  event.StartsAt.UnixMilli(),
		EndsAt:    event.EndsAt.UnixMilli(),
		Country:   event.Country,
		Region:    utils.PointerValue(event.Region),
		City:      utils.PointerValue(event.City),
		Vibe:      []string(event.Vibe),
		Amenities: []string(event.Amenities),
	}
	if doc.Vibe == nil {
		doc.Vibe = []string{}
	}
	if doc.Amenities == nil {
		doc.Amenities = []string{}
	}
	return doc
}

func NewDocuments(events []*entities.Event) []*Document {
	docs := make([]*Document, 0, len(events))
	for _, event := range events {
		docs = append(docs, NewDocument(event))
	}
	return docs
}
