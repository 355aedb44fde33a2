package service

import "github.com/surojit-ghosh/url-shortener/internal/model"

// ResolveTarget computes the final destination URL for a link given the
// request's country and device. Pure function, no I/O. Precedence is
// strict and first-match-wins: geo rule, then device rule, then the
// link's default URL.
//
// Expiry and password gates are evaluated by the caller before this
// runs; the resolver never sees a gated link.
func ResolveTarget(link *model.Link, countryCode, deviceType *string) string {
	if countryCode != nil {
		if target, ok := link.GeoTargeting[*countryCode]; ok {
			return target
		}
	}
	if deviceType != nil {
		if target, ok := link.DeviceTargeting[*deviceType]; ok {
			return target
		}
	}
	return link.URL
}
