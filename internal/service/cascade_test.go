package service

import (
	"context"
	"errors"
	"testing"

	"catalogo/internal/apierror"
	"catalogo/internal/dto"
	"catalogo/internal/model"
	"catalogo/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func boolPtr(b bool) *bool { return &b }

func TestCascade_CategoriaDeactivationClosesOverDescendants(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	cat := env.crearCategoria(t, "Bebidas")
	otra := env.crearCategoria(t, "Snacks")
	gaseosas := env.crearSubcategoria(t, cat.ID, "Gaseosas")
	aguas := env.crearSubcategoria(t, cat.ID, "Aguas")
	papas := env.crearSubcategoria(t, otra.ID, "Papas")
	cola := env.crearProducto(t, gaseosas, "Cola", 100, 5)
	agua := env.crearProducto(t, aguas, "Agua", 50, 5)
	chips := env.crearProducto(t, papas, "Chips", 80, 5)

	res, err := env.categorias.Desactivar(ctx, cat.ID)
	require.NoError(t, err)
	assert.False(t, res.Activo)
	assert.Equal(t, 4, res.DescendientesAfectados)

	assert.False(t, env.activo(t, "categorias", cat.ID))
	assert.False(t, env.activo(t, "subcategorias", gaseosas.ID))
	assert.False(t, env.activo(t, "subcategorias", aguas.ID))
	assert.False(t, env.activo(t, "productos", cola.ID))
	assert.False(t, env.activo(t, "productos", agua.ID))

	// Siblings under another category are untouched.
	assert.True(t, env.activo(t, "subcategorias", papas.ID))
	assert.True(t, env.activo(t, "productos", chips.ID))
}

func TestCascade_ActualizarWithActivoFalseCascades(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	cat := env.crearCategoria(t, "Bebidas")
	sub := env.crearSubcategoria(t, cat.ID, "Gaseosas")
	prod := env.crearProducto(t, sub, "Cola", 100, 5)

	resp, err := env.categorias.Actualizar(ctx, cat.ID, dto.ActualizarCategoriaRequest{Activo: boolPtr(false)})
	require.NoError(t, err)
	assert.False(t, resp.Activo)
	assert.False(t, env.activo(t, "subcategorias", sub.ID))
	assert.False(t, env.activo(t, "productos", prod.ID))
}

func TestCascade_SubcategoriaDeactivationOnlyTouchesItsProducts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	cat := env.crearCategoria(t, "Bebidas")
	gaseosas := env.crearSubcategoria(t, cat.ID, "Gaseosas")
	aguas := env.crearSubcategoria(t, cat.ID, "Aguas")
	cola := env.crearProducto(t, gaseosas, "Cola", 100, 5)
	agua := env.crearProducto(t, aguas, "Agua", 50, 5)

	res, err := env.subcategorias.Desactivar(ctx, gaseosas.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, res.DescendientesAfectados)

	assert.True(t, env.activo(t, "categorias", cat.ID))
	assert.False(t, env.activo(t, "productos", cola.ID))
	assert.True(t, env.activo(t, "subcategorias", aguas.ID))
	assert.True(t, env.activo(t, "productos", agua.ID))
}

func TestCascade_ReactivationIsLeafOnly(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	cat := env.crearCategoria(t, "Bebidas")
	sub := env.crearSubcategoria(t, cat.ID, "Gaseosas")
	prod := env.crearProducto(t, sub, "Cola", 100, 5)

	_, err := env.categorias.Desactivar(ctx, cat.ID)
	require.NoError(t, err)

	res, err := env.categorias.Reactivar(ctx, cat.ID)
	require.NoError(t, err)
	assert.True(t, res.Activo)
	assert.Zero(t, res.DescendientesAfectados)

	assert.True(t, env.activo(t, "categorias", cat.ID))
	assert.False(t, env.activo(t, "subcategorias", sub.ID))
	assert.False(t, env.activo(t, "productos", prod.ID))
}

func TestCascade_NoOpUpdateDoesNotCascade(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	cat := env.crearCategoria(t, "Bebidas")
	sub := env.crearSubcategoria(t, cat.ID, "Gaseosas")
	prod := env.crearProducto(t, sub, "Cola", 100, 5)

	// Leave the product inactive on its own, then deactivate twice.
	_, err := env.productos.Desactivar(ctx, prod.ID)
	require.NoError(t, err)
	_, err = env.subcategorias.Desactivar(ctx, sub.ID)
	require.NoError(t, err)
	res, err := env.subcategorias.Desactivar(ctx, sub.ID)
	require.NoError(t, err)
	assert.Zero(t, res.DescendientesAfectados)

	// true→true on the category leaves everything as it was.
	_, err = env.categorias.Actualizar(ctx, cat.ID, dto.ActualizarCategoriaRequest{Activo: boolPtr(true)})
	require.NoError(t, err)
	assert.True(t, env.activo(t, "categorias", cat.ID))
	assert.False(t, env.activo(t, "subcategorias", sub.ID))
}

func TestCascade_FailureRollsBackEverything(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	cat := env.crearCategoria(t, "Bebidas")
	sub := env.crearSubcategoria(t, cat.ID, "Gaseosas")
	prod := env.crearProducto(t, sub, "Cola", 100, 5)

	boom := errors.New("disk full")
	require.NoError(t, env.db.Callback().Update().Before("gorm:update").Register("test:fail_productos", func(tx *gorm.DB) {
		if tx.Statement.Table == "productos" {
			_ = tx.AddError(boom)
		}
	}))

	_, err := env.categorias.Desactivar(ctx, cat.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apierror.ErrCascadeWrite))
	assert.True(t, errors.Is(err, boom))
	var apiErr *apierror.Error
	require.True(t, errors.As(err, &apiErr))
	assert.Contains(t, apiErr.Msg, prod.ID.String())

	assert.True(t, env.activo(t, "categorias", cat.ID))
	assert.True(t, env.activo(t, "subcategorias", sub.ID))
	assert.True(t, env.activo(t, "productos", prod.ID))
}

func TestCreationGuard_Subcategoria(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	cat := env.crearCategoria(t, "Bebidas")
	_, err := env.categorias.Desactivar(ctx, cat.ID)
	require.NoError(t, err)

	_, err = env.subcategorias.Crear(ctx, dto.CrearSubcategoriaRequest{Nombre: "Gaseosas", CategoriaID: cat.ID.String()})
	assert.True(t, errors.Is(err, apierror.ErrParentInactive))

	_, err = env.subcategorias.Crear(ctx, dto.CrearSubcategoriaRequest{Nombre: "Gaseosas", CategoriaID: uuid.NewString()})
	assert.True(t, errors.Is(err, apierror.ErrNotFound))

	var n int64
	env.db.Model(&model.Subcategoria{}).Count(&n)
	assert.Zero(t, n)
}

func TestCreationGuard_Producto(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	cat := env.crearCategoria(t, "Bebidas")
	sub := env.crearSubcategoria(t, cat.ID, "Gaseosas")
	req := func(subID, catID uuid.UUID) dto.CrearProductoRequest {
		return dto.CrearProductoRequest{Nombre: "Cola", SubcategoriaID: subID.String(), CategoriaID: catID.String()}
	}

	_, err := env.productos.Crear(ctx, req(uuid.New(), cat.ID))
	assert.True(t, errors.Is(err, apierror.ErrNotFound))
	_, err = env.productos.Crear(ctx, req(sub.ID, uuid.New()))
	assert.True(t, errors.Is(err, apierror.ErrNotFound))

	_, err = env.subcategorias.Desactivar(ctx, sub.ID)
	require.NoError(t, err)
	_, err = env.productos.Crear(ctx, req(sub.ID, cat.ID))
	assert.True(t, errors.Is(err, apierror.ErrParentInactive))

	var n int64
	env.db.Model(&model.Producto{}).Count(&n)
	assert.Zero(t, n)
}

func TestHierarchyConsistency(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	bebidas := env.crearCategoria(t, "Bebidas")
	snacks := env.crearCategoria(t, "Snacks")
	gaseosas := env.crearSubcategoria(t, bebidas.ID, "Gaseosas")

	_, err := env.productos.Crear(ctx, dto.CrearProductoRequest{
		Nombre:         "Cola",
		SubcategoriaID: gaseosas.ID.String(),
		CategoriaID:    snacks.ID.String(),
	})
	assert.True(t, errors.Is(err, apierror.ErrInconsistentHierarchy))
	assert.Equal(t, 400, apierror.StatusCode(err))
}

func TestReactivar_RejectedUnderInactiveParent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	cat := env.crearCategoria(t, "Bebidas")
	sub := env.crearSubcategoria(t, cat.ID, "Gaseosas")
	prod := env.crearProducto(t, sub, "Cola", 100, 5)
	_, err := env.categorias.Desactivar(ctx, cat.ID)
	require.NoError(t, err)

	_, err = env.subcategorias.Reactivar(ctx, sub.ID)
	assert.True(t, errors.Is(err, apierror.ErrParentInactive))
	_, err = env.productos.Reactivar(ctx, prod.ID)
	assert.True(t, errors.Is(err, apierror.ErrParentInactive))

	// Reactivating top-down works one level at a time.
	_, err = env.categorias.Reactivar(ctx, cat.ID)
	require.NoError(t, err)
	_, err = env.subcategorias.Reactivar(ctx, sub.ID)
	require.NoError(t, err)
	_, err = env.productos.Reactivar(ctx, prod.ID)
	require.NoError(t, err)
	assert.True(t, env.activo(t, "productos", prod.ID))
}

func TestValidateParentActive_UnknownKind(t *testing.T) {
	env := newTestEnv(t)
	e := NewCascadeEngine(nil, nil, nil)

	err := e.ValidateParentActive(context.Background(), env.db, EntidadCategoria, Padres{})
	assert.Error(t, err)

	n, err := e.CascadeDeactivate(context.Background(), env.db, EntidadProducto, uuid.New())
	assert.NoError(t, err)
	assert.Zero(t, n)
}

// lockLog records the order in which the guard reads parent rows.
type lockLog struct{ orden []Entidad }

type categoriaLockSpy struct {
	repository.CategoriaRepository
	log *lockLog
}

func (c categoriaLockSpy) ObtenerParaReferenciar(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.Categoria, error) {
	c.log.orden = append(c.log.orden, EntidadCategoria)
	return c.CategoriaRepository.ObtenerParaReferenciar(ctx, tx, id)
}

type subcategoriaLockSpy struct {
	repository.SubcategoriaRepository
	log *lockLog
}

func (s subcategoriaLockSpy) ObtenerParaReferenciar(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.Subcategoria, error) {
	s.log.orden = append(s.log.orden, EntidadSubcategoria)
	return s.SubcategoriaRepository.ObtenerParaReferenciar(ctx, tx, id)
}

func TestValidateParentActive_ProductoLocksCategoriaFirst(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	cat := env.crearCategoria(t, "Bebidas")
	sub := env.crearSubcategoria(t, cat.ID, "Gaseosas")

	registro := &lockLog{}
	engine := NewCascadeEngine(
		categoriaLockSpy{repository.NewCategoriaRepository(env.db), registro},
		subcategoriaLockSpy{repository.NewSubcategoriaRepository(env.db), registro},
		repository.NewProductoRepository(env.db),
	)

	err := env.db.Transaction(func(tx *gorm.DB) error {
		return engine.ValidateParentActive(ctx, tx, EntidadProducto, Padres{CategoriaID: cat.ID, SubcategoriaID: sub.ID})
	})
	require.NoError(t, err)
	assert.Equal(t, []Entidad{EntidadCategoria, EntidadSubcategoria}, registro.orden)
}

func TestValidateParentActive_ProductoReportsMissingSubcategoriaFirst(t *testing.T) {
	env := newTestEnv(t)
	engine := NewCascadeEngine(
		repository.NewCategoriaRepository(env.db),
		repository.NewSubcategoriaRepository(env.db),
		repository.NewProductoRepository(env.db),
	)

	err := engine.ValidateParentActive(context.Background(), env.db, EntidadProducto, Padres{CategoriaID: uuid.New(), SubcategoriaID: uuid.New()})
	var apiErr *apierror.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "parent_not_found", apiErr.Code)
	assert.Equal(t, "La subcategoria no existe", apiErr.Msg)
}
