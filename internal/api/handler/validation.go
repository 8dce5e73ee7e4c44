package handler

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/financial-transactions-api/internal/domain/transaction"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var registerOnce sync.Once

// fieldMessages maps "<json field>.<tag>" to the message returned to callers
var fieldMessages = map[string]string{
	"username.required":  "Username cannot be empty",
	"password.required":  "Password cannot be empty",
	"accountId.required": "Account ID cannot be empty",
	"accountId.min":      "Account ID must be between 10 and 50 characters",
	"accountId.max":      "Account ID must be between 10 and 50 characters",
	"type.required":      "Transaction type is required",
	"type.oneof":         "Transaction type must be one of: DEBIT, CREDIT",
	"amount.required":    "Amount is required",
	"currency.required":  "Currency is required",
	"currency.len":       "Currency must be 3 uppercase letters (ISO 4217)",
	"currency.alpha":     "Currency must be 3 uppercase letters (ISO 4217)",
	"currency.uppercase": "Currency must be 3 uppercase letters (ISO 4217)",
	"description.max":    "Description cannot exceed 255 characters",
	"status.oneof":       "Status must be one of: PENDING, COMPLETED, FAILED",
}

// RegisterValidators configures gin's validator to report JSON field names
// and adds the amount precision rule. Safe to call more than once.
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(jsonFieldName)
		v.RegisterStructValidation(validateCreateTransaction, CreateTransactionRequest{})
	})
}

func jsonFieldName(fld reflect.StructField) string {
	for _, tag := range []string{"json", "form"} {
		name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return fld.Name
}

// validateCreateTransaction applies the amount rule. The reported tag is
// "amount" and the param carries the message.
func validateCreateTransaction(sl validator.StructLevel) {
	req := sl.Current().Interface().(CreateTransactionRequest)
	if req.Amount == nil {
		return
	}
	if msg := transaction.CheckAmount(*req.Amount); msg != "" {
		sl.ReportError(req.Amount, "amount", "Amount", "amount", msg)
	}
}

// validationDetails turns validator errors into field messages. ok is false
// when err is not a validation failure.
func validationDetails(err error) (map[string]string, bool) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil, false
	}

	details := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		field := fe.Field()
		if _, seen := details[field]; seen {
			continue
		}
		details[field] = fieldMessage(fe)
	}
	return details, true
}

func fieldMessage(fe validator.FieldError) string {
	if fe.Tag() == "amount" && fe.Param() != "" {
		return fe.Param()
	}
	if msg, ok := fieldMessages[fe.Field()+"."+fe.Tag()]; ok {
		return msg
	}
	return "Invalid value"
}
