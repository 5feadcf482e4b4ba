package main

import (
	"math/rand"

	"github.com/learnpulse/backend/core/risk"
)

// trainModel fits a fresh forest on synthetic data and writes the artifact
// the API loads at startup.
func (cli *commandLine) trainModel(trees, depth, samples int, seed int64, out string) error {
	rng := rand.New(rand.NewSource(seed))

	logger.Printf("generating %d training samples (seed %d)", samples, seed)
	data := risk.GenerateTrainingData(samples, rng)

	logger.Printf("training forest: %d trees, max depth %d", trees, depth)
	forest := risk.TrainForest(data, trees, depth, rng)

	if err := forest.Save(out); err != nil {
		return err
	}
	logger.Printf("model saved to %s", out)
	return nil
}
