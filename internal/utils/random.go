package utils

import (
	"crypto/rand"
	"math/big"
)

const numberBytes = "0123456789"

func GenerateRandomNumericString(length int) string {
	return generateRandom(length, numberBytes)
}

func generateRandom(length int, charset string) string {
	result := make([]byte, length)
	charsetLength := big.NewInt(int64(len(charset)))

	for i := range result {
		num, err := rand.Int(rand.Reader, charsetLength)
		if err != nil {
			panic("crypto/rand unavailable: " + err.Error())
		}
		result[i] = charset[num.Int64()]
	}

	return string(result)
}
