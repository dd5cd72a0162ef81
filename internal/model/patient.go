package model

type Patient struct {
	ID       int    `json:"id" db:"id"`
	Name     string `json:"name" db:"name"`
	Age      int    `json:"age" db:"age"`
	Address  string `json:"address" db:"address"`
	Phone    string `json:"phone" db:"phone"`
	Username string `json:"username" db:"username"`
	Password string `json:"-" db:"password"`
}

func (p *Patient) Clone() *Patient {
	c := *p
	return &c
}

type RegisterPatientRequest struct {
	Name     string `json:"name" validate:"required,max=200,singleline"`
	Age      int    `json:"age" validate:"min=0,max=120"`
	Address  string `json:"address" validate:"required,max=500,singleline"`
	Phone    string `json:"phone" validate:"required,max=50,singleline"`
	Username string `json:"username" validate:"required,max=100,singleline"`
	Password string `json:"password" validate:"required,max=72"`
}

// UpdateProfileRequest carries the fields a patient may change on their own
// record. Nil fields are left untouched.
type UpdateProfileRequest struct {
	Address  *string `json:"address" validate:"omitempty,min=1,max=500,singleline"`
	Phone    *string `json:"phone" validate:"omitempty,min=1,max=50,singleline"`
	Password *string `json:"password" validate:"omitempty,min=1,max=72"`
}

func (r *UpdateProfileRequest) Empty() bool {
	return r.Address == nil && r.Phone == nil && r.Password == nil
}
