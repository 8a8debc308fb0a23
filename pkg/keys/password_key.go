package keys

import "github.com/minio/sha256-simd"

// Account roles recognised by Steem authorities.
const (
	RoleOwner   = "owner"
	RoleActive  = "active"
	RolePosting = "posting"
	RoleMemo    = "memo"
)

// PasswordKey derives a brain key from an account name, a role and a passphrase.
// The same triple always yields the same key; its strength is that of the passphrase.
type PasswordKey struct {
	Account  string
	Role     string
	Password string
	Prefix   string
}

// NewPasswordKey returns a PasswordKey for role, defaulting to the active role.
func NewPasswordKey(account, password, role string) PasswordKey {
	if role == "" {
		role = RoleActive
	}
	return PasswordKey{Account: account, Role: role, Password: password, Prefix: DefaultPrefix}
}

// Secret returns SHA256(account ∥ role ∥ password).
func (p PasswordKey) Secret() []byte {
	role := p.Role
	if role == "" {
		role = RoleActive
	}
	sum := sha256.Sum256([]byte(p.Account + role + p.Password))
	return sum[:]
}

// PrivateKey returns the derived private key.
func (p PasswordKey) PrivateKey() (*PrivateKey, error) {
	return NewPrivateKey(p.Secret(), p.Prefix)
}

// PublicKey returns the compressed public key of the derived private key.
func (p PasswordKey) PublicKey() (*PublicKey, error) {
	pk, err := p.PrivateKey()
	if err != nil {
		return nil, err
	}
	return pk.PublicKey(), nil
}
