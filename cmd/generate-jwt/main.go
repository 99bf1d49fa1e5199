package main

import (
	"fmt"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/golang-jwt/jwt/v5"
)

// JWTClaims mirrors the claims issued by the auth handler.
type JWTClaims struct {
	Address string `json:"address"`
	jwt.RegisteredClaims
}

func main() {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		fmt.Println("JWT_SECRET environment variable is required")
		os.Exit(1)
	}

	address := "0x742d35Cc6634C0532925a3b0F26750C66d78EB66"
	if len(os.Args) > 1 {
		address = os.Args[1]
	}
	if !common.IsHexAddress(address) {
		fmt.Printf("not a hex address: %s\n", address)
		os.Exit(1)
	}
	addr := common.HexToAddress(address)

	now := time.Now()
	claims := JWTClaims{
		Address: addr.Hex(),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(24 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    "pharma-backend",
			Subject:   addr.Hex(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(secret))
	if err != nil {
		fmt.Printf("Error generating token: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("============================================================")
	fmt.Println("JWT Token Generated for Testing")
	fmt.Println("============================================================")
	fmt.Println()
	fmt.Println("Token:")
	fmt.Println(tokenString)
	fmt.Println()
	fmt.Println("Claims:")
	fmt.Printf("  Address: %s\n", addr.Hex())
	fmt.Printf("  Expires: %s\n", claims.ExpiresAt.Time)
	fmt.Println()
	fmt.Printf("curl -H 'Authorization: Bearer %s' http://localhost:8080/api/health\n", tokenString)
}
