//go:build !linux && !(rp2040 || rp2350)

package platform

import (
	"context"

	"pdbridge-go/errcode"
	"pdbridge-go/services/bmc/internal/platform/setups"
)

func Plan(string) (setups.ResourcePlan, error) {
	return setups.ResourcePlan{}, &errcode.E{C: errcode.Unsupported, Op: "platform.Plan"}
}

func Open(context.Context, setups.ResourcePlan, chan<- struct{}) (Factories, error) {
	return Factories{}, &errcode.E{C: errcode.Unsupported, Op: "platform.Open"}
}
