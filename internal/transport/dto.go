package transport

type AddToCartForm struct {
	Quantity string `form:"quantite"`
}

type QuantityForm struct {
	Action string `form:"action" validate:"required,oneof=plus moins"`
}

type CheckoutForm struct {
	Name            string `form:"nom"                 validate:"required,max=100"`
	Phone           string `form:"telephone"           validate:"required,max=20"`
	BillingAddress  string `form:"adresse_facturation" validate:"required,max=255"`
	ShippingAddress string `form:"adresse_livraison"   validate:"max=255"`
}

type RegisterForm struct {
	Email           string `form:"email"                validate:"required,email,max=180"`
	Username        string `form:"username"             validate:"required,max=50"`
	FirstName       string `form:"prenom"               validate:"max=50"`
	LastName        string `form:"nom"                  validate:"max=50"`
	Password        string `form:"password"             validate:"required,min=6,max=72"`
	PasswordConfirm string `form:"password_confirmation" validate:"required,eqfield=Password"`
}

type LoginForm struct {
	Email    string `form:"email"    validate:"required,email"`
	Password string `form:"password" validate:"required"`
}

type ProfileForm struct {
	Email           string `form:"email"             validate:"required,email,max=180"`
	FirstName       string `form:"prenom"            validate:"max=50"`
	LastName        string `form:"nom"               validate:"max=50"`
	DisplayName     string `form:"nom_affiche"       validate:"max=50"`
	PostalAddress   string `form:"adresse_postale"   validate:"max=255"`
	Phone           string `form:"telephone"         validate:"max=20"`
	ShippingAddress string `form:"adresse_livraison" validate:"max=255"`
}

type ForgotPasswordForm struct {
	Email string `form:"email" validate:"required,email"`
}

type ResetPasswordForm struct {
	Password        string `form:"password"              validate:"required,min=6,max=72"`
	PasswordConfirm string `form:"password_confirmation" validate:"required,eqfield=Password"`
}

// ProductForm is the admin create/edit form. Images come from the "images" multipart field.
type ProductForm struct {
	Name        string   `form:"nom"         validate:"required,max=255"`
	Description string   `form:"description" validate:"max=5000"`
	Price       string   `form:"prix"        validate:"required,numeric"`
	Colors      []string `form:"couleurs"`
	Sizes       []string `form:"tailles"`
	CategoryID  string   `form:"categorie"`
}

type CategoryForm struct {
	Name string `form:"nom" validate:"required,max=255"`
}
