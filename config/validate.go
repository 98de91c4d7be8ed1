package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"

	"github.com/warp/payroll-report/store/sqldb"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid configuration")

var (
	vOnce  sync.Once
	vInst  *validator.Validate
	vTrans ut.Translator
)

func validate() (*validator.Validate, ut.Translator) {
	vOnce.Do(func() {
		enLoc := en.New()
		uni := ut.New(enLoc, enLoc)
		trans, _ := uni.GetTranslator("en")

		v := validator.New(validator.WithRequiredStructEnabled())

		// prefer toml names in messages
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			tag := fld.Tag.Get("toml")
			if tag == "-" || tag == "" {
				return fld.Name
			}
			if idx := strings.Index(tag, ","); idx >= 0 {
				tag = tag[:idx]
			}
			return tag
		})
		_ = en_translations.RegisterDefaultTranslations(v, trans)

		v.RegisterStructValidation(validateDatabase, Database{})
		_ = v.RegisterTranslation("connection", trans,
			func(ut ut.Translator) error {
				return ut.Add("connection", "{0} is required for this driver", true)
			},
			func(ut ut.Translator, fe validator.FieldError) string {
				msg, _ := ut.T("connection", fe.Field())
				return msg
			},
		)

		vInst, vTrans = v, trans
	})
	return vInst, vTrans
}

// validateDatabase requires either a DSN or the fields the driver's DSN is built from.
func validateDatabase(sl validator.StructLevel) {
	db := sl.Current().Interface().(Database)
	if db.DSN != "" {
		return
	}
	switch sqldb.Driver(db.Driver) {
	case sqldb.DriverSQLite:
		if db.Path == "" {
			sl.ReportError(db.Path, "path", "Path", "connection", "")
		}
	case sqldb.DriverPostgres, sqldb.DriverMySQL:
		if db.Host == "" {
			sl.ReportError(db.Host, "host", "Host", "connection", "")
		}
		if db.Name == "" {
			sl.ReportError(db.Name, "database", "Name", "connection", "")
		}
	}
}

// Validate normalizes driver aliases and checks the configuration.
func (c *Config) Validate() error {
	if d, err := sqldb.ParseDriver(c.Database.Driver); err == nil {
		c.Database.Driver = string(d)
	}
	c.Log.Level = strings.ToLower(c.Log.Level)
	c.Report.Format = strings.ToLower(c.Report.Format)

	v, trans := validate()
	err := v.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fieldPath(fe)+": "+fe.Translate(trans))
	}
	return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(msgs, "; "))
}

// fieldPath drops the root struct name: "Config.database.host" -> "database.host".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}
