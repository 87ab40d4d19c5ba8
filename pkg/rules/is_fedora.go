// pkg/rules/is_fedora.go

package rules

import (
	"gitlab.consulting.redhat.com/ksa/health-check-rules/pkg/facts"
)

const IsFedoraKey = "IS_FEDORA"

// IsFedora passes when the machine runs Fedora
type IsFedora struct{}

func (IsFedora) Info() Info {
	return Info{
		Name:        "is_fedora",
		Title:       "Fedora Release",
		Description: "Reports whether the machine runs Fedora.",
		Category:    "System Information",
		References:  []string{"https://docs.fedoraproject.org/"},
	}
}

func (IsFedora) Requires() []facts.Name {
	return []facts.Name{facts.RedhatRelease, facts.Hostname}
}

func (IsFedora) Content() map[string]string {
	return map[string]string{
		IsFedoraKey: "This machine ({{.hostname}}) runs {{.product}}.",
	}
}

func (IsFedora) Evaluate(f *Facts) (*Response, error) {
	rel, err := f.RedhatRelease()
	if err != nil {
		return nil, err
	}
	host, err := f.Hostname()
	if err != nil {
		return nil, err
	}

	details := Details{"hostname": host.FQDN, "product": rel.Product}
	if rel.IsFedora() {
		return MakePass(IsFedoraKey, details), nil
	}
	return MakeFail(IsFedoraKey, details), nil
}
