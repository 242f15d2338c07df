package render

const cubeVertexShader = `#version 410 core
layout (location = 0) in vec3 aPos;
layout (location = 1) in vec3 aNormal;
layout (location = 2) in vec3 aOffset;
layout (location = 3) in vec3 aColor;

uniform mat4 view;
uniform mat4 projection;

out vec3 FragPos;
out vec3 Normal;
out vec3 Color;

void main() {
    FragPos = aPos + aOffset;
    Normal = aNormal;
    Color = aColor;
    gl_Position = projection * view * vec4(FragPos, 1.0);
}
`

const cubeFragmentShader = `#version 410 core
in vec3 FragPos;
in vec3 Normal;
in vec3 Color;

uniform vec3 viewPos;
uniform vec3 lightPos;
uniform vec3 lightColor;

out vec4 FragColor;

void main() {
    vec3 ambient = 0.2 * lightColor;

    vec3 norm = normalize(Normal);
    vec3 lightDir = normalize(lightPos - FragPos);
    vec3 diffuse = max(dot(norm, lightDir), 0.0) * lightColor;

    vec3 viewDir = normalize(viewPos - FragPos);
    vec3 reflectDir = reflect(-lightDir, norm);
    vec3 specular = 0.3 * pow(max(dot(viewDir, reflectDir), 0.0), 32.0) * lightColor;

    FragColor = vec4((ambient + diffuse + specular) * Color, 1.0);
}
`
