// Package validation holds the single go-playground validator instance shared
// by request DTOs and persisted models.
package validation

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"catalogo/internal/apierror"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"gorm.io/gorm/schema"
)

var imagenPattern = regexp.MustCompile(`(?i)^[\w,\s-]+\.(jpg|jpeg|png|gif)$`)

var naming = schema.NamingStrategy{}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	// Register decimal.Decimal as a numeric type so that validator tags like
	// min=0, gt=0 work without panicking ("Bad field type decimal.Decimal").
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})

	// Report fields by their JSON name, or by their column name for models.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
		return naming.ColumnName("", fld.Name)
	})

	_ = v.RegisterValidation("imagen", func(fl validator.FieldLevel) bool {
		return imagenPattern.MatchString(fl.Field().String())
	})
	return v
}

// Engine exposes the configured validator for gin binding integration.
func Engine() *validator.Validate { return validate }

// ImagenValida reports whether name is an accepted image filename.
func ImagenValida(name string) bool { return imagenPattern.MatchString(name) }

// Fields runs struct validation and returns field → rule for every violation.
// A nil map means the struct is valid.
func Fields(s interface{}) map[string]string {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return map[string]string{"_": err.Error()}
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = rule(fe)
	}
	return fields
}

// Struct validates s and converts the first violation to a ValidationFailed
// error carrying field and rule.
func Struct(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return apierror.Validation("_", "invalid", "Datos invalidos")
	}
	fe := verrs[0]
	return apierror.Validation(fe.Field(), rule(fe), mensaje(fe))
}

func rule(fe validator.FieldError) string {
	if fe.Param() != "" {
		return fe.Tag() + "=" + fe.Param()
	}
	return fe.Tag()
}

func mensaje(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "El campo " + fe.Field() + " es obligatorio"
	case "min":
		if fe.Kind() == reflect.String {
			return "El campo " + fe.Field() + " debe tener al menos " + fe.Param() + " caracteres"
		}
		return "El campo " + fe.Field() + " no puede ser menor que " + fe.Param()
	case "max":
		if fe.Kind() == reflect.String {
			return "El campo " + fe.Field() + " debe tener como maximo " + fe.Param() + " caracteres"
		}
		return "El campo " + fe.Field() + " no puede ser mayor que " + fe.Param()
	case "imagen":
		return "La imagen debe ser un archivo jpg, jpeg, png o gif"
	case "oneof":
		return "El campo " + fe.Field() + " debe ser uno de: " + fe.Param()
	case "email":
		return "El campo " + fe.Field() + " debe ser un email valido"
	default:
		return "El campo " + fe.Field() + " no es valido"
	}
}
