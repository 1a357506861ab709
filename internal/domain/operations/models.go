package operations

import (
	"errors"
	"fmt"

	"github.com/Fusion-OS/android-system-security/internal/pkg/validators"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// ClientID identifies the calling process or session. It is only ever compared for equality
// and used to subscribe to the client's liveness.
type ClientID string

// EngineHandle is the raw operation handle minted by a crypto engine. It is meaningful only
// together with the Engine that issued it and is never handed to clients.
type EngineHandle uint64

// Token is the opaque capability handed to a client in place of an EngineHandle.
// The serial is assigned from a monotonic counter so a value is never live twice;
// the nonce makes tokens unguessable by other clients.
type Token struct {
	serial uint64
	nonce  uuid.UUID
}

// NewToken creates a token for the given serial with a fresh random nonce.
func NewToken(serial uint64) Token {
	return Token{serial: serial, nonce: uuid.New()}
}

// Serial returns the monotonic part of the token.
func (t Token) Serial() uint64 {
	return t.serial
}

// IsZero reports whether t is the zero token, which never names an operation.
func (t Token) IsZero() bool {
	return t == Token{}
}

func (t Token) String() string {
	if t.IsZero() {
		return "<none>"
	}
	return fmt.Sprintf("%016x-%s", t.serial, t.nonce)
}

// Operation is the registry record of one in-progress engine session.
type Operation struct {
	Handle EngineHandle
	// Engine is borrowed: the engine must outlive every operation referencing it.
	Engine    Engine
	Owner     ClientID
	Pruneable bool
}

// Stats is a point-in-time snapshot of registry occupancy.
type Stats struct {
	Operations int `json:"operations"`
	Pruneable  int `json:"pruneable"`
	Clients    int `json:"clients"`
}

// BeginParams describes an operation a client wants to start.
type BeginParams struct {
	KeyAlias  string `mapstructure:"key_alias" validate:"required,keyalias"`
	Purpose   string `mapstructure:"purpose" validate:"required,oneof=sign verify encrypt decrypt"`
	Pruneable bool   `mapstructure:"pruneable"`
}

// Validate for validating BeginParams struct
func (p *BeginParams) Validate() error {
	validate := validator.New()

	if err := validate.RegisterValidation("keyalias", validators.KeyAliasValidation); err != nil {
		return fmt.Errorf("failed to register custom validator: %w", err)
	}

	err := validate.Struct(p)
	if err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			var messages []string
			for _, fieldErr := range validationErrors {
				messages = append(messages, fmt.Sprintf("Field: %s, Tag: %s", fieldErr.Field(), fieldErr.Tag()))
			}
			return fmt.Errorf("validation failed: %v", messages)
		}
		return fmt.Errorf("validation error: %w", err)
	}

	return nil
}
