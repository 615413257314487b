package jwt

import (
	"encoding/json"
	"fmt"
	types "go-checkout/internal/common/type"
	"go-checkout/internal/pkg/helper"
	"go-checkout/internal/pkg/logger"
	"go-checkout/internal/pkg/validation"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	AccountDataKey = "account_data"
)

func getJWTSecret() []byte {
	secret := helper.GetEnv("JWT_SECRET")
	if secret == "" {
		logger.Warning.Println("JWT_SECRET not found, using default secret")
		secret = "$d3f4uIt_s3cr3t_key#"
	}
	return []byte(secret)
}

// GenerateToken mints a short-lived session token for a verified account. The token
// is scoped to one flow session via the FlowID claim.
func GenerateToken(data types.VerifiedAccount) (string, *time.Time) {
	var tokenDuration = 2 * time.Hour
	exp := time.Now().Add(tokenDuration)

	claims := jwt.MapClaims{
		"exp":          exp.Unix(),
		AccountDataKey: data,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signedToken, err := token.SignedString(getJWTSecret())
	if err != nil {
		return "", nil
	}

	return signedToken, &exp
}

func ValidateToken(jwtToken string) (*types.VerifiedAccount, error) {
	token, err := jwt.Parse(jwtToken, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return getJWTSecret(), nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		var accountData types.VerifiedAccount
		if claims[AccountDataKey] == nil {
			return nil, fmt.Errorf("account data not found in token claims")
		}

		accountDataBytes, err := json.Marshal(claims[AccountDataKey])
		if err != nil {
			return nil, fmt.Errorf("error marshalling account data: %v", err)
		}

		err = json.Unmarshal(accountDataBytes, &accountData)
		if err != nil {
			return nil, fmt.Errorf("error unmarshalling account data: %v", err)
		}

		err = validation.Validate(accountData)
		if err != nil {
			return nil, err
		}

		return &accountData, nil
	}

	return nil, fmt.Errorf("invalid token")
}
