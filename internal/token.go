package internal

import (
	"context"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Alturino/storefront/internal/constants"
	inErrors "github.com/Alturino/storefront/internal/errors"
)

type jwtToken struct{}

// VerifyToken parses and validates the opaque identity token issued by
// the external auth service. Only HS256 with the shared secret is
// accepted; the subject claim carries the user id.
func VerifyToken(c context.Context, token string, secretKey string) (*jwt.Token, error) {
	logger := zerolog.Ctx(c).
		With().
		Str(constants.KEY_TAG, "VerifyToken").
		Logger()

	claims := &jwt.RegisteredClaims{}
	jwtToken, err := jwt.ParseWithClaims(
		token,
		claims,
		func(t *jwt.Token) (interface{}, error) {
			return []byte(secretKey), nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
	)
	if err != nil {
		err = fmt.Errorf("%w with error=%w", inErrors.ErrTokenInvalid, err)
		logger.Error().Err(err).Msg(err.Error())
		return nil, err
	}
	if claims.Subject == "" {
		logger.Error().Err(inErrors.ErrEmptySubject).Msg(inErrors.ErrEmptySubject.Error())
		return nil, inErrors.ErrEmptySubject
	}
	return jwtToken, nil
}

func AttachTokenToContext(c context.Context, token *jwt.Token) context.Context {
	return context.WithValue(c, jwtToken{}, token)
}

func TokenFromContext(c context.Context) (*jwt.Token, error) {
	token, ok := c.Value(jwtToken{}).(*jwt.Token)
	if !ok {
		return nil, inErrors.ErrEmptyAuth
	}
	return token, nil
}

func UserIdFromJwtToken(c context.Context) (uuid.UUID, error) {
	token, err := TokenFromContext(c)
	if err != nil {
		return uuid.Nil, err
	}
	subject, err := token.Claims.GetSubject()
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w with error=%w", inErrors.ErrEmptySubject, err)
	}
	userId, err := uuid.Parse(subject)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w with error=%w", inErrors.ErrTokenInvalid, err)
	}
	return userId, nil
}
