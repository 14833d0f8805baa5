package presentation

import (
	"github.com/zjrosen/assetq/internal/domain/assets"
)

// RegistrationDTO represents a namespace registration for presentation
type RegistrationDTO struct {
	Namespace       string   `json:"namespace"`
	Path            string   `json:"path"`
	URL             string   `json:"url"` // empty when no root matched
	VersionStrategy string   `json:"version_strategy"`
	CacheBusting    bool     `json:"cache_busting"`
	Version         string   `json:"version"`
	HandlePrefix    string   `json:"handle_prefix,omitempty"`
	Packages        []string `json:"packages,omitempty"`
}

// EnqueuedDTO is one asset handed to the page.
type EnqueuedDTO struct {
	Kind      string   `json:"kind"`
	Namespace string   `json:"namespace"`
	File      string   `json:"file"`
	Handle    string   `json:"handle"`
	Src       string   `json:"src"`
	Version   string   `json:"version"`
	Deps      []string `json:"deps,omitempty"`
	InFooter  bool     `json:"in_footer,omitempty"`
	Media     string   `json:"media,omitempty"`
}

// FromDomainRegistration converts a domain registration to a DTO
func FromDomainRegistration(reg *assets.Registration) RegistrationDTO {
	opts := reg.Options()
	return RegistrationDTO{
		Namespace:       reg.Namespace(),
		Path:            reg.Path(),
		URL:             reg.URL(),
		VersionStrategy: opts.VersionStrategy.String(),
		CacheBusting:    opts.IsCacheBusting(),
		Version:         opts.Version,
		HandlePrefix:    opts.HandlePrefix,
		Packages:        opts.Packages,
	}
}

// FromDomainRegistrations converts a slice of domain registrations to DTOs
func FromDomainRegistrations(regs []*assets.Registration) []RegistrationDTO {
	dtos := make([]RegistrationDTO, len(regs))
	for i, reg := range regs {
		dtos[i] = FromDomainRegistration(reg)
	}
	return dtos
}

// FromAsset converts an enqueued asset to a DTO.
func FromAsset(namespace, file string, a assets.Asset) EnqueuedDTO {
	return EnqueuedDTO{
		Kind:      a.Kind.String(),
		Namespace: namespace,
		File:      file,
		Handle:    a.Handle,
		Src:       a.Src,
		Version:   a.Version,
		Deps:      a.Deps,
		InFooter:  a.InFooter,
		Media:     a.Media,
	}
}
