package handler

import (
	"skillchain/internal/endorsement/models"
	id "skillchain/pkg/domain"
)

type EndorseResponse struct {
	CredentialID id.CredentialID `json:"credential_id"`
	Endorser     id.AccountID    `json:"endorser"`
	Stake        id.Balance      `json:"stake"`
}

type EndorsementsResponse struct {
	CredentialID id.CredentialID      `json:"credential_id"`
	Endorsements []models.Endorsement `json:"endorsements"`
}

type ScoreResponse struct {
	CredentialID id.CredentialID `json:"credential_id"`
	Score        id.Balance      `json:"score"`
}
