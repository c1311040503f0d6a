// Package resources defines the record set that caches the provisioned
// gateway resources: the Cognito authorizer, the MCP gateway and its Lambda target.
package resources

import (
	"bytes"
	"encoding/json"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
)

// Kind is the key of a record in the record set.
type Kind string

// Kinds of the records, in the order they must be provisioned.
const (
	KindCognito      Kind = "cognito"
	KindGateway      Kind = "gateway"
	KindLambdaTarget Kind = "lambda_target"
)

// AllKinds returns the record kinds in dependency order.
func AllKinds() []Kind {
	return []Kind{KindCognito, KindGateway, KindLambdaTarget}
}

// ClientInfo describes the OAuth2 client registered with the authorizer.
type ClientInfo struct {
	ClientID      string `json:"client_id" validate:"required"`
	ClientSecret  string `json:"client_secret,omitempty"`
	UserPoolID    string `json:"user_pool_id" validate:"required"`
	TokenEndpoint string `json:"token_endpoint" validate:"required,url"`
	Scope         string `json:"scope" validate:"required"`
	DomainPrefix  string `json:"domain_prefix,omitempty"`

	Extra Extra `json:"-"`
}

// CustomJWTAuthorizer is the JWT authorizer configuration of the gateway.
type CustomJWTAuthorizer struct {
	DiscoveryURL   string   `json:"discoveryUrl" validate:"required,url"`
	AllowedClients []string `json:"allowedClients" validate:"required,min=1"`

	Extra Extra `json:"-"`
}

// AuthorizerConfig is passed to the gateway on creation.
type AuthorizerConfig struct {
	CustomJWTAuthorizer CustomJWTAuthorizer `json:"customJWTAuthorizer"`

	Extra Extra `json:"-"`
}

// AuthorizerRecord is stored under the `cognito` key.
type AuthorizerRecord struct {
	ClientInfo       ClientInfo       `json:"client_info"`
	AuthorizerConfig AuthorizerConfig `json:"authorizer_config"`

	Extra Extra `json:"-"`
}

// GatewayRecord is stored under the `gateway` key.
type GatewayRecord struct {
	GatewayID  string `json:"gatewayId" validate:"required"`
	GatewayURL string `json:"gatewayUrl" validate:"required,url"`
	GatewayARN string `json:"gatewayArn,omitempty"`
	Name       string `json:"name,omitempty"`
	RoleARN    string `json:"roleArn,omitempty"`
	Status     string `json:"status,omitempty"`

	Extra Extra `json:"-"`
}

// TargetRecord is stored under the `lambda_target` key.
// The gateway is identified by its ID or its ARN.
type TargetRecord struct {
	TargetID   string `json:"targetId" validate:"required"`
	GatewayID  string `json:"gatewayId,omitempty" validate:"required_without=GatewayARN"`
	GatewayARN string `json:"gatewayArn,omitempty" validate:"required_without=GatewayID"`
	Name       string `json:"name,omitempty"`
	LambdaARN  string `json:"lambdaArn,omitempty"`
	Status     string `json:"status,omitempty"`

	Extra Extra `json:"-"`
}

// RecordSet is the persisted mapping of record kind to its provisioning result.
// A nil record means the resource is not provisioned yet.
// Members of any record that are not declared here are kept in Extra
// and written back unchanged.
type RecordSet struct {
	Cognito      *AuthorizerRecord `json:"cognito,omitempty"`
	Gateway      *GatewayRecord    `json:"gateway,omitempty"`
	LambdaTarget *TargetRecord     `json:"lambda_target,omitempty"`

	Extra Extra `json:"-"`
}

func (r *ClientInfo) UnmarshalJSON(data []byte) error {
	type plain ClientInfo
	var p plain
	extra, err := unmarshalRecord(data, &p)
	if err != nil {
		return err
	}
	*r = ClientInfo(p)
	r.Extra = extra
	return nil
}

func (r ClientInfo) MarshalJSON() ([]byte, error) {
	type plain ClientInfo
	return marshalRecord(plain(r), r.Extra)
}

func (r *CustomJWTAuthorizer) UnmarshalJSON(data []byte) error {
	type plain CustomJWTAuthorizer
	var p plain
	extra, err := unmarshalRecord(data, &p)
	if err != nil {
		return err
	}
	*r = CustomJWTAuthorizer(p)
	r.Extra = extra
	return nil
}

func (r CustomJWTAuthorizer) MarshalJSON() ([]byte, error) {
	type plain CustomJWTAuthorizer
	return marshalRecord(plain(r), r.Extra)
}

func (r *AuthorizerConfig) UnmarshalJSON(data []byte) error {
	type plain AuthorizerConfig
	var p plain
	extra, err := unmarshalRecord(data, &p)
	if err != nil {
		return err
	}
	*r = AuthorizerConfig(p)
	r.Extra = extra
	return nil
}

func (r AuthorizerConfig) MarshalJSON() ([]byte, error) {
	type plain AuthorizerConfig
	return marshalRecord(plain(r), r.Extra)
}

func (r *AuthorizerRecord) UnmarshalJSON(data []byte) error {
	type plain AuthorizerRecord
	var p plain
	extra, err := unmarshalRecord(data, &p)
	if err != nil {
		return err
	}
	*r = AuthorizerRecord(p)
	r.Extra = extra
	return nil
}

func (r AuthorizerRecord) MarshalJSON() ([]byte, error) {
	type plain AuthorizerRecord
	return marshalRecord(plain(r), r.Extra)
}

func (r *GatewayRecord) UnmarshalJSON(data []byte) error {
	type plain GatewayRecord
	var p plain
	extra, err := unmarshalRecord(data, &p)
	if err != nil {
		return err
	}
	*r = GatewayRecord(p)
	r.Extra = extra
	return nil
}

func (r GatewayRecord) MarshalJSON() ([]byte, error) {
	type plain GatewayRecord
	return marshalRecord(plain(r), r.Extra)
}

func (r *TargetRecord) UnmarshalJSON(data []byte) error {
	type plain TargetRecord
	var p plain
	extra, err := unmarshalRecord(data, &p)
	if err != nil {
		return err
	}
	*r = TargetRecord(p)
	r.Extra = extra
	return nil
}

func (r TargetRecord) MarshalJSON() ([]byte, error) {
	type plain TargetRecord
	return marshalRecord(plain(r), r.Extra)
}

func (rs *RecordSet) UnmarshalJSON(data []byte) error {
	type plain RecordSet
	var p plain
	extra, err := unmarshalRecord(data, &p)
	if err != nil {
		return err
	}
	*rs = RecordSet(p)
	rs.Extra = extra
	return nil
}

func (rs RecordSet) MarshalJSON() ([]byte, error) {
	type plain RecordSet
	return marshalRecord(plain(rs), rs.Extra)
}

// New returns an empty record set.
func New() *RecordSet {
	return &RecordSet{}
}

// Has returns true if the record of the given kind is present.
func (rs *RecordSet) Has(kind Kind) bool {
	switch kind {
	case KindCognito:
		return rs.Cognito != nil
	case KindGateway:
		return rs.Gateway != nil
	case KindLambdaTarget:
		return rs.LambdaTarget != nil
	}
	return false
}

// Kinds returns the kinds present in the record set, in dependency order.
func (rs *RecordSet) Kinds() []Kind {
	var list []Kind
	for _, k := range AllKinds() {
		if rs.Has(k) {
			list = append(list, k)
		}
	}
	return list
}

// Complete returns true when all the records are present.
func (rs *RecordSet) Complete() bool {
	return len(rs.Kinds()) == len(AllKinds())
}

// Clone returns a deep copy of the record set.
func (rs *RecordSet) Clone() *RecordSet {
	c := &RecordSet{Extra: rs.Extra.clone()}
	if rs.Cognito != nil {
		a := *rs.Cognito
		a.Extra = rs.Cognito.Extra.clone()
		a.ClientInfo.Extra = rs.Cognito.ClientInfo.Extra.clone()
		a.AuthorizerConfig.Extra = rs.Cognito.AuthorizerConfig.Extra.clone()
		jwt := &a.AuthorizerConfig.CustomJWTAuthorizer
		jwt.Extra = rs.Cognito.AuthorizerConfig.CustomJWTAuthorizer.Extra.clone()
		jwt.AllowedClients = append([]string(nil), rs.Cognito.AuthorizerConfig.CustomJWTAuthorizer.AllowedClients...)
		c.Cognito = &a
	}
	if rs.Gateway != nil {
		g := *rs.Gateway
		g.Extra = rs.Gateway.Extra.clone()
		c.Gateway = &g
	}
	if rs.LambdaTarget != nil {
		t := *rs.LambdaTarget
		t.Extra = rs.LambdaTarget.Extra.clone()
		c.LambdaTarget = &t
	}
	return c
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the required fields of the present records.
func (rs *RecordSet) Validate() error {
	if rs.Cognito != nil {
		if err := validate.Struct(rs.Cognito); err != nil {
			return errors.Wrapf(err, "invalid %s record", KindCognito)
		}
	}
	if rs.Gateway != nil {
		if err := validate.Struct(rs.Gateway); err != nil {
			return errors.Wrapf(err, "invalid %s record", KindGateway)
		}
	}
	if rs.LambdaTarget != nil {
		if err := validate.Struct(rs.LambdaTarget); err != nil {
			return errors.Wrapf(err, "invalid %s record", KindLambdaTarget)
		}
	}
	return nil
}

// Decode parses and validates the persisted record set.
// The data must be a JSON object: empty input is not a valid record set.
func Decode(data []byte) (*RecordSet, error) {
	rs := New()
	if err := json.Unmarshal(data, rs); err != nil {
		return nil, errors.Wrap(err, "failed to parse record set")
	}
	if !bytes.HasPrefix(bytes.TrimSpace(data), []byte("{")) {
		return nil, errors.New("failed to parse record set: not a JSON object")
	}
	if err := rs.Validate(); err != nil {
		return nil, err
	}
	return rs, nil
}

// Encode returns the indented JSON of the record set.
func Encode(rs *RecordSet) ([]byte, error) {
	data, err := json.MarshalIndent(rs, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode record set")
	}
	return append(data, '\n'), nil
}
