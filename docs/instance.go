package docs

import "github.com/kompa2go/kommute-fare/internal/domain/types"

// InstanceFor returns the swagger instance name registered for a service mode.
func InstanceFor(mode types.ServiceMode) (string, bool) {
	switch mode {
	case types.FareService:
		return SwaggerInfoFare.InstanceName(), true
	case types.AdminService:
		return SwaggerInfoAdmin.InstanceName(), true
	case types.SettlementService:
		return SwaggerInfoSettlement.InstanceName(), true
	}
	return "", false
}
