package model

import "portfolio-access/internal/domain"

// Operator identifies a mobile-money channel the aggregator supports.
type Operator string

const (
	OperatorWave     Operator = "wave"
	OperatorOrange   Operator = "orange"
	OperatorFree     Operator = "free"
	OperatorExpresso Operator = "expresso"
)

// serviceCodes maps each operator to the aggregator's cash-in service code.
var serviceCodes = map[Operator]string{
	OperatorWave:     "WAVE_SN_API_CASH_IN",
	OperatorOrange:   "ORANGE_SN_API_CASH_IN",
	OperatorFree:     "FREE_SN_WALLET_CASH_IN",
	OperatorExpresso: "EXPRESSO_SN_WALLET_CASH_IN",
}

// ServiceCode resolves the aggregator service code for an operator.
func (o Operator) ServiceCode() (string, error) {
	code, ok := serviceCodes[o]
	if !ok {
		return "", domain.ErrUnknownOperator
	}
	return code, nil
}
