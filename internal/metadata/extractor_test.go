package metadata

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toyz/annoroute/internal/annotations"
)

const goSource = `package controllers

// UserController serves user resources.
// @mount('/users')
// @middleware('auth')
type UserController struct {
	store Store
}

// @inject('store')
func NewUserController(store Store) *UserController {
	return &UserController{store: store}
}

// @get('/:id', name='user.show')
func (u *UserController) Show(c *router.Context) error {
	return nil
}

// Not annotated, ignored.
func (u *UserController) helper() {}

// @post('/')

func (u *UserController) Detached(c *router.Context) error {
	return nil
}

// @config
var defaultLimit int = 20

/**
 * @mount('/health')
 */
type HealthController struct{}

/** @get('/') */
func (h HealthController) Check(c *router.Context, next router.Next) error {
	return next()
}
`

func TestExtract_Go(t *testing.T) {
	records, err := Extract("controllers.go", goSource)
	require.NoError(t, err)
	require.Len(t, records, 2)

	users := records[0]
	assert.Equal(t, "controllers.go", users.File)
	require.NotNil(t, users.Definition)
	assert.Equal(t, "UserController", users.Definition.Name)
	assert.Equal(t, 3, users.Definition.Line)
	require.Len(t, users.Definition.Annotations, 2)
	assert.Equal(t, "mount", users.Definition.Annotations[0].Name)
	assert.Equal(t, "/users", users.Definition.Annotations[0].Params.GetString("value", ""))
	assert.Equal(t, "middleware", users.Definition.Annotations[1].Name)

	require.NotNil(t, users.Constructor)
	assert.Equal(t, "UserController", users.Constructor.Owner)
	assert.Equal(t, []string{"store Store"}, users.Constructor.Args)

	require.Len(t, users.Methods, 1)
	show := users.Methods[0]
	assert.Equal(t, "Show", show.Name)
	assert.Equal(t, "UserController", show.Receiver)
	assert.Equal(t, "UserController", show.Owner)
	assert.Equal(t, []string{"c *router.Context"}, show.Args)
	require.Len(t, show.Annotations, 1)
	assert.Equal(t, "get", show.Annotations[0].Name)
	assert.Equal(t, 15, show.Annotations[0].Location.Line)

	require.Len(t, users.Properties, 1)
	assert.Equal(t, "defaultLimit", users.Properties[0].Name)
	assert.Equal(t, "20", users.Properties[0].Body)

	health := records[1]
	assert.Equal(t, "HealthController", health.Name())
	require.Len(t, health.Methods, 1)
	assert.Equal(t, "Check", health.Methods[0].Name)
	assert.Equal(t, []string{"c *router.Context", "next router.Next"}, health.Methods[0].Args)
}

const jsSource = "/**\r\n" +
	" * @mount('/widgets')\r\n" +
	" */\r\n" +
	"class WidgetController extends Controller {\r\n" +
	"  /**\r\n" +
	"   * @inject('db')\r\n" +
	"   */\r\n" +
	"  constructor(db, cache) {\r\n" +
	"  }\r\n" +
	"\r\n" +
	"  /**\r\n" +
	"   * @get('/')\r\n" +
	"   */\r\n" +
	"  async list(ctx, next) {\r\n" +
	"  }\r\n" +
	"\r\n" +
	"  /**\r\n" +
	"   * @limit\r\n" +
	"   */\r\n" +
	"  this.limit = 10;\r\n" +
	"}\r\n"

func TestExtract_Classes(t *testing.T) {
	records, err := Extract("widgets.js", jsSource)
	require.NoError(t, err)
	require.Len(t, records, 1)

	r := records[0]
	require.NotNil(t, r.Definition)
	assert.Equal(t, "WidgetController", r.Definition.Name)
	assert.Equal(t, "Controller", r.Definition.Parent)

	require.NotNil(t, r.Constructor)
	assert.Equal(t, []string{"db", "cache"}, r.Constructor.Args)
	assert.Equal(t, "inject", r.Constructor.Annotations[0].Name)

	require.Len(t, r.Methods, 1)
	assert.Equal(t, "list", r.Methods[0].Name)
	assert.Equal(t, []string{"ctx", "next"}, r.Methods[0].Args)

	require.Len(t, r.Properties, 1)
	assert.Equal(t, "limit", r.Properties[0].Name)
	assert.Equal(t, "10", r.Properties[0].Body)
}

func TestExtract_DefinitionFlushesPrevious(t *testing.T) {
	src := `// @mount('/a')
type A struct{}

// @mount('/b')
type B struct{}

// @get('/x')
func (b *B) X(c *router.Context) error { return nil }
`
	records, err := Extract("ab.go", src)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "A", records[0].Name())
	assert.Empty(t, records[0].Methods)
	assert.Equal(t, "B", records[1].Name())
	assert.Len(t, records[1].Methods, 1)
}

func TestExtract_DocumentedTypeWithoutAnnotations(t *testing.T) {
	src := `package controllers

// UserController serves users
type UserController struct{}

// @get('/users')
func (u *UserController) List(c *router.Context) error { return nil }
`
	records, err := Extract("users.go", src)
	require.NoError(t, err)
	require.Len(t, records, 1)

	users := records[0]
	require.NotNil(t, users.Definition)
	assert.Equal(t, "UserController", users.Definition.Name)
	assert.Equal(t, 3, users.Definition.Line)
	assert.Empty(t, users.Definition.Annotations)
	require.Len(t, users.Methods, 1)
	assert.Equal(t, "List", users.Methods[0].Name)
	assert.Equal(t, "UserController", users.Methods[0].Owner)
}

func TestExtract_MethodsFollowTheirReceiver(t *testing.T) {
	src := `package controllers

// @mount('/orders')
type OrderController struct{}

// Order is a placed order
type Order struct{}

// @get('/')
func (o *OrderController) List(c *router.Context) error { return nil }

// @get('/:id')
func (p *PaymentController) Show(c *router.Context) error { return nil }

type PaymentController struct{}

// @post('/')
func (o *OrderController) Create(c *router.Context) error { return nil }
`
	records, err := Extract("orders.go", src)
	require.NoError(t, err)
	require.Len(t, records, 2, "Order carries nothing and is dropped")

	orders := records[0]
	assert.Equal(t, "OrderController", orders.Name())
	require.Len(t, orders.Methods, 2)
	assert.Equal(t, "List", orders.Methods[0].Name)
	assert.Equal(t, "Create", orders.Methods[1].Name)

	payments := records[1]
	assert.Equal(t, "PaymentController", payments.Name())
	assert.Equal(t, 15, payments.Definition.Line, "positioned at the uncommented declaration")
	require.Len(t, payments.Methods, 1)
	assert.Equal(t, "Show", payments.Methods[0].Name)
	assert.Equal(t, "PaymentController", payments.Methods[0].Owner)
}

func TestExtract_ReceiverDeclaredElsewhere(t *testing.T) {
	src := `package controllers

// @get('/status')
func (s *StatusController) Get(c *router.Context) error { return nil }
`
	records, err := Extract("status.go", src)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "StatusController", records[0].Name())
	assert.Equal(t, 3, records[0].Definition.Line)
	require.Len(t, records[0].Methods, 1)
}

func TestExtract_NothingAnnotated(t *testing.T) {
	records, err := Extract("empty.go", "package x\n\n// plain comment\nfunc F() {}\n")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestExtract_SyntaxErrorCarriesLocation(t *testing.T) {
	src := "package x\n\n// @get('/x'\ntype X struct{}\n"
	_, err := Extract("bad.go", src)
	require.Error(t, err)

	var syntaxErr *annotations.SyntaxError
	require.True(t, errors.As(err, &syntaxErr))
	assert.Equal(t, "bad.go", syntaxErr.Location().File)
	assert.Equal(t, 3, syntaxErr.Location().Line)
}

func TestSplitArgs(t *testing.T) {
	assert.Nil(t, splitArgs(") {"))
	assert.Equal(t, []string{"a", "b"}, splitArgs("a, b) {"))
	assert.Equal(t, []string{"fn func(int)", "x"}, splitArgs("fn func(int), x) error"))
	assert.Equal(t, []string{"a"}, splitArgs("a,"))
}
