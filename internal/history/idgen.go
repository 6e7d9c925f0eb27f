package history

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"
)

var adjectives = []string{
	"amber", "brisk", "calm", "crisp", "deft",
	"eager", "early", "fair", "fleet", "gentle",
	"glad", "golden", "hardy", "honest", "jolly",
	"keen", "kind", "lively", "lucid", "mellow",
	"merry", "nimble", "noble", "plain", "proud",
	"quick", "quiet", "rapid", "ready", "rosy",
	"rustic", "sharp", "silent", "sleek", "snug",
	"solid", "spry", "steady", "sunny", "swift",
	"tidy", "vivid", "warm", "wild", "wise",
}

var nouns = []string{
	"acacia", "baobab", "basin", "cairn", "canoe",
	"cedar", "clinic", "comet", "delta", "dune",
	"egret", "falcon", "ferry", "gecko", "granary",
	"harbor", "heron", "ibis", "kestrel", "lagoon",
	"lantern", "mango", "market", "meadow", "mesa",
	"oasis", "orchard", "otter", "papaya", "pelican",
	"plateau", "quarry", "reed", "river", "savanna",
	"sorghum", "stork", "tamarind", "terrace", "thicket",
	"valley", "village", "wadi", "well", "zebu",
}

// GenerateID creates an identifier in adjective_noun_YYYYMMDD_HHMMSS format.
// Words are picked with crypto/rand so parallel runs rarely collide.
func GenerateID() (string, error) {
	adj, err := randomWord(adjectives)
	if err != nil {
		return "", fmt.Errorf("selecting random adjective: %w", err)
	}
	noun, err := randomWord(nouns)
	if err != nil {
		return "", fmt.Errorf("selecting random noun: %w", err)
	}
	return fmt.Sprintf("%s_%s_%s", adj, noun, time.Now().Format("20060102_150405")), nil
}

func randomWord(words []string) (string, error) {
	if len(words) == 0 {
		return "", errors.New("word list is empty")
	}
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(words))))
	if err != nil {
		return "", fmt.Errorf("generating random number: %w", err)
	}
	return words[n.Int64()], nil
}
