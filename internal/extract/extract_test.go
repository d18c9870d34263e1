package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adibfarrasy/lspintar/internal/grammar"
	"github.com/adibfarrasy/lspintar/internal/store"
)

func newTestExtractor(t *testing.T) *Extractor {
	t.Helper()
	facade, err := grammar.NewFacade()
	require.NoError(t, err)
	return New(facade)
}

func symbolByFQN(ef *store.ExtractedFile, fqn string) *store.Symbol {
	for _, s := range ef.Symbols {
		if s.FQN == fqn {
			return s
		}
	}
	return nil
}

func symbolByFQNAndType(ef *store.ExtractedFile, fqn string, t store.SymbolType) *store.Symbol {
	for _, s := range ef.Symbols {
		if s.FQN == fqn && s.SymbolType == t {
			return s
		}
	}
	return nil
}

func TestExtract_JavaClassAndMethods(t *testing.T) {
	e := newTestExtractor(t)

	src := []byte(`package com.acme.service;

public class UserService implements Repository {
    private String name;

    public String getName() {
        return name;
    }
}
`)

	ef, err := e.Extract(grammar.Java, "UserService.java", src, "h1")
	require.NoError(t, err)

	class := symbolByFQN(ef, "com.acme.service.UserService")
	require.NotNil(t, class)
	assert.Equal(t, store.SymbolClass, class.SymbolType)
	assert.Contains(t, class.Modifiers, "public")

	method := symbolByFQN(ef, "com.acme.service.UserService.getName")
	require.NotNil(t, method)
	assert.Equal(t, store.SymbolMethod, method.SymbolType)
	assert.Equal(t, "String", method.Metadata.ReturnType)

	field := symbolByFQN(ef, "com.acme.service.UserService.name")
	require.NotNil(t, field)
	assert.Equal(t, store.SymbolField, field.SymbolType)
	assert.Equal(t, "String", field.Metadata.DeclType)

	require.Len(t, ef.ImplementsEdges, 1)
	assert.Equal(t, "Repository", ef.ImplementsEdges[0].ShortName)
	assert.Equal(t, class.FQN, ef.ImplementsEdges[0].SymbolFQN)
}

func TestExtract_JavaInterfaceExtends(t *testing.T) {
	e := newTestExtractor(t)
	src := []byte(`package com.acme.repo;

public interface BaseRepository extends CrudRepository {
    void save();
}
`)
	ef, err := e.Extract(grammar.Java, "BaseRepository.java", src, "h1")
	require.NoError(t, err)

	iface := symbolByFQN(ef, "com.acme.repo.BaseRepository")
	require.NotNil(t, iface)
	assert.Equal(t, store.SymbolInterface, iface.SymbolType)

	require.Len(t, ef.SuperEdges, 1)
	assert.Equal(t, "CrudRepository", ef.SuperEdges[0].ShortName)
}

func TestExtract_KotlinClassWithConstructorProperty(t *testing.T) {
	e := newTestExtractor(t)
	src := []byte(`package com.acme.kt

class UserRepository(val name: String) : BaseRepository {
    fun findUser(id: Int): String {
        return name
    }
}
`)
	ef, err := e.Extract(grammar.Kotlin, "UserRepository.kt", src, "h1")
	require.NoError(t, err)

	class := symbolByFQN(ef, "com.acme.kt.UserRepository")
	require.NotNil(t, class)

	prop := symbolByFQNAndType(ef, "com.acme.kt.UserRepository.name", store.SymbolProperty)
	require.NotNil(t, prop, "constructor val parameter should also be recorded as a property")

	param := symbolByFQNAndType(ef, "com.acme.kt.UserRepository.name", store.SymbolParameter)
	require.NotNil(t, param, "constructor val parameter keeps its parameter record too")

	fn := symbolByFQN(ef, "com.acme.kt.UserRepository.findUser")
	require.NotNil(t, fn)
	assert.Equal(t, "Int", fn.Metadata.ParamTypes[0])
}

func TestExtract_GroovyImplicitPublicModifier(t *testing.T) {
	e := newTestExtractor(t)
	src := []byte(`package com.acme.groovy

class DataProcessor {
    def process() {
        return null
    }
}
`)
	ef, err := e.Extract(grammar.Groovy, "DataProcessor.groovy", src, "h1")
	require.NoError(t, err)

	class := symbolByFQN(ef, "com.acme.groovy.DataProcessor")
	require.NotNil(t, class)
	assert.Contains(t, class.Modifiers, "public", "groovy declarations are implicitly public")
}

func TestExtract_KotlinFunctionBodyValIsLocalVariableNotProperty(t *testing.T) {
	e := newTestExtractor(t)
	src := []byte(`package com.acme.kt

class Calculator {
    val total: Int = 0

    fun compute(): Int {
        val doubled = total
        return doubled
    }
}
`)
	ef, err := e.Extract(grammar.Kotlin, "Calculator.kt", src, "h1")
	require.NoError(t, err)

	classProp := symbolByFQNAndType(ef, "com.acme.kt.Calculator.total", store.SymbolProperty)
	require.NotNil(t, classProp, "class-scoped val should be recorded as a property")

	var doubledCount int
	for _, s := range ef.Symbols {
		if s.ShortName == "doubled" {
			doubledCount++
			assert.Equal(t, store.SymbolLocalVariable, s.SymbolType, "function-body val must not be classified as a property")
		}
	}
	assert.Equal(t, 1, doubledCount, "function-body val must be recorded exactly once")
}

func TestExtract_JavaLocalVariableDeclarationMultiDeclarator(t *testing.T) {
	e := newTestExtractor(t)
	src := []byte(`package com.acme.service;

public class Counter {
    public void run() {
        int a, b = 1;
        String label = "x";
    }
}
`)
	ef, err := e.Extract(grammar.Java, "Counter.java", src, "h1")
	require.NoError(t, err)

	a := symbolByFQNAndType(ef, "com.acme.service.Counter.run.a", store.SymbolLocalVariable)
	require.NotNil(t, a, "each comma-separated declarator must be emitted as its own local variable")

	b := symbolByFQNAndType(ef, "com.acme.service.Counter.run.b", store.SymbolLocalVariable)
	require.NotNil(t, b)

	label := symbolByFQNAndType(ef, "com.acme.service.Counter.run.label", store.SymbolLocalVariable)
	require.NotNil(t, label)
	assert.Equal(t, "String", label.Metadata.DeclType)

	for _, s := range ef.Symbols {
		if s.ShortName == "a" || s.ShortName == "b" || s.ShortName == "label" {
			assert.NotEqual(t, store.SymbolField, s.SymbolType, "local variables must not be mislabeled as fields")
		}
	}
}

func TestExtract_RecordsImports(t *testing.T) {
	e := newTestExtractor(t)
	src := []byte(`package com.acme;

import com.acme.other.Widget;
import com.acme.util.*;

public class Consumer {}
`)
	ef, err := e.Extract(grammar.Java, "Consumer.java", src, "h1")
	require.NoError(t, err)

	require.Len(t, ef.Imports, 2)
	assert.Equal(t, "com.acme.other.Widget", ef.Imports[0].FQNOrStem)
	assert.False(t, ef.Imports[0].IsWildcard)
	assert.True(t, ef.Imports[1].IsWildcard)
}
