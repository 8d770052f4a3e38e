package random

import (
	"crypto/rand"
	"math/big"

	"github.com/kishanss4/corrupt-watch/internal/errors"
)

var letters = []rune("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ")

// Letters returns a random string of n letters.
func Letters(n uint) (string, error) {
	out := make([]rune, n)
	for i := range out {
		index, err := rand.Int(rand.Reader, big.NewInt(int64(len(letters))))
		if err != nil {
			return "", errors.Wrap(err, "random letter index")
		}
		out[i] = letters[index.Int64()]
	}
	return string(out), nil
}
