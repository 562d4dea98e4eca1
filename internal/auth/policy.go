package auth

import (
	"fmt"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"gorm.io/gorm"
)

// ModelText matches a role subject against a route pattern and a method regex.
const ModelText = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = r.sub == p.sub && keyMatch2(r.obj, p.obj) && regexMatch(r.act, p.act)
`

// DefaultPolicies grants admins every method on the admin routes.
var DefaultPolicies = [][]string{
	{"role_admin", "/v1/admin/*", "^(GET|POST|PUT|DELETE)$"},
}

// Subject is the casbin subject for a user role.
func Subject(role string) string {
	return "role_" + role
}

// NewEnforcer loads policies from the casbin_rule table and adds any missing
// default policy.
func NewEnforcer(db *gorm.DB) (*casbin.Enforcer, error) {
	m, err := model.NewModelFromString(ModelText)
	if err != nil {
		return nil, fmt.Errorf("failed to parse casbin model: %w", err)
	}
	adp, err := gormadapter.NewAdapterByDB(db)
	if err != nil {
		return nil, fmt.Errorf("failed to create casbin adapter: %w", err)
	}
	e, err := casbin.NewEnforcer(m, adp)
	if err != nil {
		return nil, err
	}
	if err := e.LoadPolicy(); err != nil {
		return nil, err
	}
	if err := SeedPolicies(e); err != nil {
		return nil, err
	}
	return e, nil
}

func SeedPolicies(e *casbin.Enforcer) error {
	for _, p := range DefaultPolicies {
		ok, err := e.HasPolicy(p)
		if err != nil {
			return err
		}
		if ok {
			continue
		}
		if _, err := e.AddPolicy(p); err != nil {
			return fmt.Errorf("failed to add policy %v: %w", p, err)
		}
	}
	return nil
}
