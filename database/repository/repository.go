package repository

import (
	attemptsRepo "jeffjackson/database/repository/attempts"
)

// Re-export the PaymentAttemptRepository interface and constructors.
type PaymentAttemptRepository = attemptsRepo.PaymentAttemptRepository

var (
	NewMongoAttemptRepo     = attemptsRepo.NewMongoAttemptRepo
	NewMongoAttemptRepoWith = attemptsRepo.NewMongoAttemptRepoWith
)
