package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/communisaas/resolver-cli/internal/model"
)

func TestKey_Deterministic(t *testing.T) {
	a := &model.ResolutionRequest{Class: model.ClassOrganizational, EntityName: "Acme Corp", EntityURL: "https://acme.example"}
	b := &model.ResolutionRequest{Class: model.ClassOrganizational, EntityName: "Acme Corp", EntityURL: "https://acme.example"}
	assert.Equal(t, Key(a), Key(b))
}

func TestKey_CaseInsensitive(t *testing.T) {
	a := &model.ResolutionRequest{Class: model.ClassOrganizational, EntityName: "ACME Corp"}
	b := &model.ResolutionRequest{Class: model.ClassOrganizational, EntityName: "acme corp"}
	assert.Equal(t, Key(a), Key(b))
}

func TestKey_VariesByParameters(t *testing.T) {
	base := &model.ResolutionRequest{Class: model.ClassOrganizational, EntityName: "Acme Corp"}
	keys := map[string]bool{Key(base): true}

	variants := []*model.ResolutionRequest{
		{Class: model.ClassCorporate, EntityName: "Acme Corp"},
		{Class: model.ClassOrganizational, EntityName: "Other Org"},
		{Class: model.ClassOrganizational, EntityName: "Acme Corp", EntityURL: "https://acme.example"},
		{Class: model.ClassOrganizational, EntityName: "Acme Corp", Scope: "Oregon"},
	}
	for _, v := range variants {
		keys[Key(v)] = true
	}
	assert.Len(t, keys, 5)
}

func TestKey_IgnoresSinkAndMessage(t *testing.T) {
	a := &model.ResolutionRequest{Class: model.ClassOrganizational, EntityName: "Acme Corp", Subject: "ignored", Message: "ignored too"}
	b := &model.ResolutionRequest{Class: model.ClassOrganizational, EntityName: "Acme Corp", Sink: func(model.Thought) {}}
	assert.Equal(t, Key(a), Key(b))
}
